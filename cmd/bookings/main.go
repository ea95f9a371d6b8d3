package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"voicebook/internal/auth"
	bookingevents "voicebook/internal/bookings/events"
	bookinghandler "voicebook/internal/bookings/handler"
	bookingrepo "voicebook/internal/bookings/repository"
	bookingservice "voicebook/internal/bookings/service"
	bookingvalidator "voicebook/internal/bookings/validator"
	notifyrepo "voicebook/internal/notifications/repository"
	notifyservice "voicebook/internal/notifications/service"
	"voicebook/internal/notifications/transport"
	tenanthandler "voicebook/internal/tenants/handler"
	tenantrepo "voicebook/internal/tenants/repository"
	tenantservice "voicebook/internal/tenants/service"
	tenantvalidator "voicebook/internal/tenants/validator"
	"voicebook/internal/voice"
	"voicebook/pkg/app"
	"voicebook/pkg/config"
	"voicebook/pkg/contracts"
	"voicebook/pkg/kafka"
	kafkaconfig "voicebook/pkg/kafka/config"
	"voicebook/pkg/metrics"
	"voicebook/pkg/model"
	"voicebook/pkg/sealer"
)

const ServiceName = "bookings-api"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting bookings API service")

	api, producer := buildAPI(cfg)
	if producer != nil {
		defer producer.Close()
	}

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, api)
	serverApp.Run()
}

// apiHandler registers every route surface of the bookings service on
// one router.
type apiHandler struct {
	handlers []contracts.Handler
}

func (h *apiHandler) RegisterRoutes(router *httprouter.Router) {
	for _, handler := range h.handlers {
		handler.RegisterRoutes(router)
	}
	router.Handler(http.MethodGet, "/metrics", promhttp.Handler())
}

func buildAPI(cfg *config.Config) (contracts.Handler, *kafka.Producer) {
	m := metrics.NewDefault()

	confirmationSealer, err := sealer.New(cfg.ConfirmationKey)
	if err != nil {
		cfg.Log.Fatal("Invalid confirmation key", "error", err)
	}

	verifier := auth.NewVerifier(cfg.JWTSecret, cfg.AuthCacheCap, cfg.AuthCacheTTL, m)

	resourceRepo := tenantrepo.NewMongoResourceRepository(cfg)
	membershipRepo := tenantrepo.NewMongoMembershipRepository(cfg)
	tenantRepo := tenantrepo.NewMongoTenantRepository(cfg)

	authMw := auth.NewMiddleware(verifier, membershipRepo, cfg, cfg.Log)

	producer := buildProducer(cfg)
	var events bookingservice.EventPublisher
	if producer != nil {
		events = bookingevents.NewKafkaPublisher(producer, cfg.Log)
	}

	jobRepo := notifyrepo.NewMongoJobRepository(cfg)
	smsTransport := transport.NewSMSTransport(cfg.SMSProviderURL, cfg.SMSProviderToken, cfg.Log)
	notifier := notifyservice.NewNotificationQueue(jobRepo, smsTransport, m, cfg)

	bookingSvc := bookingservice.NewBookingService(
		bookingrepo.NewMongoBookingRepository(cfg),
		bookingrepo.NewMongoLockStore(cfg),
		resourceRepo,
		bookingvalidator.NewBookingValidator(cfg.BookingHorizonDays, cfg.Log),
		notifier,
		events,
		confirmationSealer,
		m,
		cfg,
	)

	tenantSvc := tenantservice.NewTenantService(
		tenantRepo,
		resourceRepo,
		membershipRepo,
		tenantvalidator.NewTenantValidator(),
		cfg,
	)

	cfg.Log.Info("Bookings API initialized", "database", cfg.MongoDatabaseName)

	return &apiHandler{
		handlers: []contracts.Handler{
			bookinghandler.NewBookingHandler(bookingSvc, authMw, cfg.Log),
			tenanthandler.NewTenantHandler(tenantSvc, authMw, cfg.Log),
			voice.NewVoiceHandler(voice.NewBookingRegistry(bookingSvc), verifier, cfg.VoiceWebhookSecret, cfg.Log),
		},
	}, producer
}

// buildProducer wires the booking event stream. A broker outage at boot
// does not block the API; events are an audit stream, not a dependency.
func buildProducer(cfg *config.Config) *kafka.Producer {
	kafkaCfg, err := kafkaconfig.Load()
	if err != nil {
		cfg.Log.Warn("Invalid Kafka configuration, booking events disabled", "error", err)
		return nil
	}

	producer, err := kafka.NewProducer(kafkaCfg, model.TopicBookings, cfg.Log)
	if err != nil {
		cfg.Log.Warn("Failed to create Kafka producer, booking events disabled", "error", err)
		return nil
	}
	return producer
}
