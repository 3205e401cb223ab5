package main

import (
	"log"
	"time"

	"shop/internal/config"
	"shop/internal/domain/model"
	"shop/internal/handler"
	"shop/internal/infra/db"
	"shop/internal/infra/gateway"
	"shop/internal/infra/mailer"
	infraRepo "shop/internal/infra/repository"
	"shop/internal/infra/token"
	"shop/internal/logging"
	"shop/internal/server"
	"shop/internal/usecase"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	//.envは無くてもよい（本番は環境変数で渡す）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.GoEnv)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	//DB接続
	gormDB, err := db.Connect()
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.Cart{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.Payment{},
		&model.Delivery{},
		&model.Invoice{},
		&model.InvoiceLine{},
		&model.InventoryAdjustment{},
		&model.AuditLog{},
	); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	//Repository（GORM実装）生成
	txManager := infraRepo.NewTxManagerGorm(gormDB)
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)

	//決済ゲートウェイ
	var payGateway usecase.PaymentGateway
	switch cfg.PaymentDriver {
	case "stripe":
		payGateway = gateway.NewStripeGateway(cfg.StripeSecretKey, "eur")
	default:
		payGateway = gateway.NewSimGateway()
	}

	//メール（SMTP未設定なら送らない）
	var orderMailer usecase.Mailer = usecase.NopMailer{}
	if cfg.SMTPHost != "" {
		m, err := mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
		if err != nil {
			logger.Fatal("mailer", zap.Error(err))
		}
		orderMailer = m
	}

	//JWT issuer
	issuer := token.NewJWTIssuer(cfg.JWTSecret, 15*time.Minute)

	//Usecase生成
	authUC := usecase.NewAuthUsecase(userRepo, issuer, logger)
	productUC := usecase.NewProductUsecase(productRepo, txManager, auditRepo, logger)
	cartUC := usecase.NewCartUsecase(txManager)
	orderUC := usecase.NewOrderUsecase(txManager, logger)
	paymentUC := usecase.NewPaymentUsecase(txManager, payGateway, orderMailer, logger)
	billingUC := usecase.NewBillingUsecase(txManager)
	deliveryUC := usecase.NewDeliveryUsecase(txManager)
	adminOrderUC := usecase.NewAdminOrderUsecase(txManager, payGateway, auditRepo, logger)

	//Handler生成
	handlers := server.Handlers{
		Auth:         handler.NewAuthHandler(authUC),
		Product:      handler.NewProductHandler(productUC),
		Cart:         handler.NewCartHandler(cartUC),
		Order:        handler.NewOrderHandler(orderUC, paymentUC, billingUC, deliveryUC),
		AdminProduct: handler.NewAdminProductHandler(productUC),
		AdminOrder:   handler.NewAdminOrderHandler(adminOrderUC),
	}

	//Server起動
	addr := cfg.Port
	if addr[0] != ':' {
		addr = ":" + addr
	}

	logger.Info("server start", zap.String("addr", addr), zap.String("env", cfg.GoEnv))
	if err := server.Start(addr, cfg, handlers); err != nil {
		logger.Fatal("server", zap.Error(err))
	}
}
