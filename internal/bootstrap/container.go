package bootstrap

import (
	"context"
	"encoding/json"
	"log"

	"admin-dashboard-bff/internal/backend"
	"admin-dashboard-bff/internal/config"
	"admin-dashboard-bff/internal/controller"
	"admin-dashboard-bff/internal/identity"
	"admin-dashboard-bff/internal/persistence"
	"admin-dashboard-bff/internal/pkg/logger"
	"admin-dashboard-bff/internal/querycache"
	"admin-dashboard-bff/internal/store"
	"admin-dashboard-bff/internal/websocket"
	"admin-dashboard-bff/pkg/events"

	pktNats "admin-dashboard-bff/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	// Controllers
	AuthController     controller.IAuthController
	TenantController   controller.ITenantController
	DocumentController controller.IDocumentController
	StateController    controller.IStateController

	// Stores (exposed for middleware and shutdown)
	SessionStore *store.SessionStore
	TenantStore  *store.TenantStore

	WebSocketHub *websocket.Hub

	natsPub *pktNats.Publisher
	rdb     *redis.Client
	cancel  context.CancelFunc
}

func NewContainer(cfg *config.Config) *Container {
	ctx, cancel := context.WithCancel(context.Background())

	// 1. Core facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Durable key-value state. Redis when configured, a local file
	// otherwise.
	var kv persistence.KV
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		kv = persistence.NewRedisStore(rdb)
	} else {
		kv = persistence.NewFileStore(cfg.State.FilePath)
	}

	// 4. Outbound clients
	provider := identity.NewProviderClient(cfg.Auth.ProviderURL, cfg.Auth.AnonKey, kv, pubSub, sysLogger)
	api := backend.NewClient(cfg.Backend.APIBaseURL, accessTokenSource(kv))

	// 5. Stores
	queryCache := querycache.New()
	documentsStore := store.NewDocumentsStore(pubSub)
	orgSettingsStore := store.NewOrgSettingsStore()
	tenantStore := store.NewTenantStore(
		api,
		kv,
		[]store.Resettable{documentsStore, orgSettingsStore},
		queryCache,
		pubSub,
		sysLogger,
	)
	sessionStore := store.NewSessionStore(provider, kv, pubSub, sysLogger)

	// Sign-out teardown: dependent caches first, then tenant state. The
	// session store clears itself after the hook returns.
	sessionStore.SetSignOutHook(func() {
		documentsStore.Reset()
		orgSettingsStore.Reset()
		queryCache.Flush()
		tenantStore.Clear()
	})

	hydrator := store.NewHydrator(sessionStore, tenantStore, orgSettingsStore, documentsStore, cfg.Auth.PublicRoutePrefixes)

	// 6. Session reactions: a signed-in session triggers the workspace
	// fetch, decoupled from whichever surface completed the sign-in.
	go watchSignIns(ctx, pubSub, tenantStore, sysLogger)

	// 7. Optional NATS audit stream
	var natsPub *pktNats.Publisher
	if cfg.App.NatsURL != "" {
		var err error
		natsPub, err = pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			go relayAuditEvents(ctx, pubSub, natsPub, sysLogger)
		}
	}

	// 8. WebSocket hub mirrors state events to connected tabs
	wsHub := websocket.NewHub(pubSub, rdb, sysLogger)
	go wsHub.Run(ctx)

	return &Container{
		AuthController:     controller.NewAuthController(provider, sessionStore, tenantStore, api, sysLogger),
		TenantController:   controller.NewTenantController(tenantStore, orgSettingsStore, api, queryCache, sysLogger),
		DocumentController: controller.NewDocumentController(documentsStore, tenantStore, api, queryCache, sysLogger),
		StateController:    controller.NewStateController(sessionStore, tenantStore, orgSettingsStore, documentsStore, hydrator),

		SessionStore: sessionStore,
		TenantStore:  tenantStore,
		WebSocketHub: wsHub,

		natsPub: natsPub,
		rdb:     rdb,
		cancel:  cancel,
	}
}

func (c *Container) Close() {
	c.cancel()
	c.SessionStore.Close()
	if c.natsPub != nil {
		c.natsPub.Close()
	}
	if c.rdb != nil {
		c.rdb.Close()
	}
}

// accessTokenSource reads the current access token from the persisted session
// slot on every backend call, so a refreshed session is picked up without
// re-wiring the client.
func accessTokenSource(kv persistence.KV) backend.TokenSource {
	return func() string {
		raw, ok, err := kv.Get(persistence.SlotSession)
		if err != nil || !ok {
			return ""
		}
		var session identity.Session
		if err := json.Unmarshal([]byte(raw), &session); err != nil {
			return ""
		}
		return session.AccessToken
	}
}

// watchSignIns fetches workspaces whenever a session becomes authenticated.
func watchSignIns(ctx context.Context, pubSub *gochannel.GoChannel, tenant *store.TenantStore, log logger.ILogger) {
	messages, err := pubSub.Subscribe(ctx, events.TopicAuthSession)
	if err != nil {
		log.Error("bootstrap", "Failed to subscribe to session events", map[string]interface{}{"error": err.Error()})
		return
	}
	for msg := range messages {
		var change identity.SessionChange
		if err := json.Unmarshal(msg.Payload, &change); err == nil && change.Event == events.SessionSignedIn {
			go tenant.FetchWorkspaces(ctx)
		}
		msg.Ack()
	}
}

// relayAuditEvents mirrors every state event onto the NATS audit stream.
func relayAuditEvents(ctx context.Context, pubSub *gochannel.GoChannel, natsPub *pktNats.Publisher, log logger.ILogger) {
	topics := []string{events.TopicAuthSession, events.TopicTenant, events.TopicDocuments}
	for _, topic := range topics {
		messages, err := pubSub.Subscribe(ctx, topic)
		if err != nil {
			log.Error("bootstrap", "Failed to subscribe for audit relay", map[string]interface{}{"topic": topic, "error": err.Error()})
			continue
		}
		go func(topic string, messages <-chan *message.Message) {
			for msg := range messages {
				var payload map[string]interface{}
				if err := json.Unmarshal(msg.Payload, &payload); err != nil {
					msg.Ack()
					continue
				}
				kind, _ := payload["type"].(string)
				if kind == "" {
					kind, _ = payload["event"].(string)
				}
				if kind == "" {
					kind = topic
				}
				if err := natsPub.Publish(ctx, events.New(kind, payload)); err != nil {
					log.Warn("bootstrap", "Audit relay publish failed", map[string]interface{}{"error": err.Error()})
				}
				msg.Ack()
			}
		}(topic, messages)
	}
}
