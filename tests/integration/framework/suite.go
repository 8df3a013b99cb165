package framework

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	yec "gitlab.com/yecreg/yec-backend"
	"gitlab.com/yecreg/yec-backend/internal/adapters/repos/postgres"
	notifyadapter "gitlab.com/yecreg/yec-backend/internal/adapters/services/notify"
	"gitlab.com/yecreg/yec-backend/internal/application/audit"
	"gitlab.com/yecreg/yec-backend/internal/application/events"
	"gitlab.com/yecreg/yec-backend/internal/application/notification"
	"gitlab.com/yecreg/yec-backend/internal/application/review"
	"gitlab.com/yecreg/yec-backend/internal/domain/registration"
	"gitlab.com/yecreg/yec-backend/internal/domain/valueobject/notify"
	eventbusport "gitlab.com/yecreg/yec-backend/internal/ports/eventbus"
	httpport "gitlab.com/yecreg/yec-backend/internal/ports/http"
	watermillport "gitlab.com/yecreg/yec-backend/internal/ports/watermill"
	"gitlab.com/yecreg/yec-backend/pkg/env"
	"gitlab.com/yecreg/yec-backend/pkg/eventbus"
	pgpkg "gitlab.com/yecreg/yec-backend/pkg/postgres"
	"gitlab.com/yecreg/yec-backend/pkg/watermillx"
	"gitlab.com/yecreg/yec-backend/tests/integration/builders"
	dbhelper "gitlab.com/yecreg/yec-backend/tests/integration/framework/db"
	eventhelper "gitlab.com/yecreg/yec-backend/tests/integration/framework/event"
	httphelper "gitlab.com/yecreg/yec-backend/tests/integration/framework/http"
)

const (
	AdminEmail      = "reviewer@yec.kz"
	AdminChatTarget = "#yec-admins-test"
)

type IntegrationTestSuite struct {
	suite.Suite

	pgContainer *tcpostgres.PostgresContainer
	pool        *pgxpool.Pool
	app         *Application
	stopRouter  context.CancelFunc

	HTTP    *httphelper.Helper
	DB      *dbhelper.Helper
	Event   *eventhelper.Helper
	Builder *builders.Factory
}

type Application struct {
	Bus     *eventbus.Bus
	Events  *events.Service
	Metrics *prometheus.Registry
	Router  chi.Router
}

func (s *IntegrationTestSuite) SetupSuite() {
	if testing.Short() {
		s.T().Skip("skipping integration tests in short mode")
	}
	ctx := context.Background()

	pgContainer, err := tcpostgres.Run(ctx, "postgres:17-alpine",
		tcpostgres.WithDatabase("yec_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		tcpostgres.BasicWaitStrategies(),
	)
	s.Require().NoError(err)
	s.pgContainer = pgContainer

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.Require().NoError(pgpkg.Migrate(pgpkg.MigrateDSN(connStr), yec.Migrations))

	s.pool, err = pgpkg.NewPgxPool(ctx, connStr, env.Test)
	s.Require().NoError(err)

	s.Event = eventhelper.NewHelper(s.pool)
	s.DB = dbhelper.NewHelper(dbhelper.Args{Pool: s.pool})
	s.Builder = builders.NewFactory()

	s.app = s.setupApplication(ctx)
	s.HTTP = httphelper.NewHelper(s.app.Router, AdminEmail)
}

func (s *IntegrationTestSuite) setupApplication(ctx context.Context) *Application {
	wmlogger := watermillx.NewSlogLogger(slog.Default(), slog.LevelWarn)

	publisher, subscriber, err := watermillx.NewPubSub(watermillx.PubSubConfig{
		Transport:     watermillx.TransportSQL,
		Conn:          s.pool,
		ConsumerGroup: "integration",
		PollInterval:  50 * time.Millisecond,
		Logger:        wmlogger,
	})
	s.Require().NoError(err)
	s.Require().NoError(watermillx.InitializeTopics(ctx, subscriber, notifyadapter.TopicEmail, notifyadapter.TopicChat))

	metrics := prometheus.NewRegistry()
	bus := eventbus.New(eventbus.Args{Hooks: eventbus.NewMetrics(metrics)})

	registrations := postgres.NewRegistrationRepo(s.pool, nil, nil)
	audits := postgres.NewAuditRepo(s.pool, nil, nil)

	reviewApp := review.NewApp(review.Args{
		Store:          registrations,
		ApprovalPolicy: registration.ApprovalAdvisory,
	})
	notificationApp := notification.NewApp(notification.Args{
		Sink: notifyadapter.NewPublisher(notifyadapter.PublisherArgs{
			Publisher: publisher,
			Channels:  notify.Channels(),
		}),
		AdminChatTarget: AdminChatTarget,
	})
	auditApp := audit.NewApp(audit.Args{Sink: audits})

	s.Require().NoError(eventbusport.NewPort(bus).Register(eventbusport.AppEventHandlers{
		Status:       reviewApp.Event,
		Notification: notificationApp.Event,
		Audit:        auditApp.Event,
	}))

	router, err := message.NewRouter(message.RouterConfig{}, wmlogger)
	s.Require().NoError(err)
	wmport := watermillport.NewPort(router, subscriber, wmlogger, watermillport.RetryConfig{
		MaxRetries:      1,
		InitialInterval: 10 * time.Millisecond,
	})
	s.Require().NoError(wmport.Register(watermillport.Deliverers{
		Email: s.Event.Email,
		Chat:  s.Event.Chat,
	}))

	runCtx, cancel := context.WithCancel(ctx)
	s.stopRouter = cancel
	go func() {
		_ = wmport.Run(runCtx)
	}()
	<-wmport.Running()

	service := events.NewService(events.Args{Bus: bus})

	mux := chi.NewRouter()
	httpport.NewPort(httpport.Args{
		Registrations: registrations,
		Events:        service,
		Gatherer:      metrics,
		Health:        s.pool.Ping,
	}).Route(mux)

	return &Application{
		Bus:     bus,
		Events:  service,
		Metrics: metrics,
		Router:  mux,
	}
}

func (s *IntegrationTestSuite) TearDownSuite() {
	if s.stopRouter != nil {
		s.stopRouter()
	}
	if s.pool != nil {
		s.pool.Close()
	}
	if s.pgContainer != nil {
		s.Require().NoError(s.pgContainer.Terminate(context.Background()))
	}
}

func (s *IntegrationTestSuite) AfterTest(_, _ string) {
	s.DB.TruncateAll(s.T())
	s.Event.Reset(s.T())
}

func (s *IntegrationTestSuite) App() *Application {
	return s.app
}
