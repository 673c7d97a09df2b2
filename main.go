package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"PSocial/global"
	"PSocial/logger"
	mid "PSocial/middleware"
	midsec "PSocial/middleware/security"
	social "PSocial/module/social"
	"PSocial/module/social/model"
	"PSocial/module/social/service"
	"PSocial/module/social/store"
	"PSocial/service/dispatcher"
	"PSocial/service/gateway"
	gwhandlers "PSocial/service/gateway/handlers"
	mgoSrv "PSocial/service/mgo"
	"PSocial/service/storage"
	redis "PSocial/service/storage/redis"
	"PSocial/tools/security"

	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config")
	flag.Parse()

	cfg, err := global.LoadConfig(*configPath)
	if err != nil {
		logger.Errorf("[boot] load config failed: %v", err)
		os.Exit(1)
	}

	global.ConfigAll(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 存储就绪后再装配业务
	if err := mgoSrv.WaitReady(ctx, mgoSrv.Manager()); err != nil {
		logger.Errorf("[boot] mongo not ready: %v", err)
		os.Exit(1)
	}
	db := mgoSrv.GetDB()
	txn := mgoSrv.GetTx()

	users := store.NewUserMongo(db)
	graphs := store.NewFriendGraphMongo(db)
	notifs := store.NewNotificationMongo(db)

	jwtOpts := security.DefaultOptions(global.GetJwtSecret(cfg))
	if cfg.JWT.TTL > 0 {
		jwtOpts.TTL = cfg.JWT.TTL
	}

	nodeID := cfg.Gateway.NodeID
	bus, err := dispatcher.Init(dispatcher.Config{
		Backend:      cfg.Dispatch.Backend,
		NatsServers:  cfg.Dispatch.NatsServers,
		NatsSubject:  cfg.Dispatch.NatsSubject,
		KafkaBrokers: cfg.Dispatch.KafkaBrokers,
		KafkaTopic:   cfg.Dispatch.KafkaTopic,
	}, nodeID)
	if err != nil {
		logger.Errorf("[boot] dispatch bus init failed: %v", err)
		os.Exit(1)
	}

	gw := gateway.NewServer(gateway.Config{
		GatewayID: nodeID,
		JWT:       jwtOpts,
	}, users)

	var busIface service.Bus
	if bus != nil {
		busIface = bus
	}
	bc := service.NewBroadcaster(gw.Registry(), busIface, nodeID)

	presenceSvc := service.NewPresenceService(storage.NewRedisPresence(), users, graphs, bc, cfg.PresenceTTL)
	gw.AttachPresence(presenceSvc)
	gwhandlers.RegisterAll(gw)

	notifySvc := service.NewNotificationService(notifs, bc)
	friendSvc := service.NewFriendService(users, graphs, notifs, txn, notifySvc, bc)
	accountSvc := service.NewAccountService(users, graphs, notifs, txn)

	midsec.Config(&midsec.Options{
		JWT:                       jwtOpts,
		Users:                     users,
		EnableAuthorizationBearer: true,
	})

	// 其他节点发来的信封投给本地连接
	if bus != nil {
		err := bus.Subscribe(func(env *model.EventEnvelope) {
			gw.Registry().PushToUser(env.Area, env.ToUserID, env.Payload)
		})
		if err != nil {
			logger.Errorf("[boot] bus subscribe failed: %v", err)
			os.Exit(1)
		}
	}

	r := gin.Default()
	mid.Manager().Add(mid.Origin())
	r.Use(mid.Manager().Use())
	r.GET("/ws", gw.HandleWS)
	social.NewHandler(accountSvc, friendSvc, notifySvc, presenceSvc, jwtOpts).Register(r)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Gateway.Port),
		Handler: r,
	}
	go func() {
		logger.Infof("[boot] gateway %s listening on %s", nodeID, srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("[boot] http server: %v", err)
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	logger.Infof("[boot] shutting down")
	shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	if bus != nil {
		_ = bus.Close()
	}
	_ = redis.CloseRedis()
	logger.Sync()
}
