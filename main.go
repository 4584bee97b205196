package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rajuvisuals/storefront/config"
	"github.com/rajuvisuals/storefront/lib/mycache"
	"github.com/rajuvisuals/storefront/lib/mypublisher"
	"github.com/rajuvisuals/storefront/lib/mypubsub"
	"github.com/rajuvisuals/storefront/lib/myqueue"
	"github.com/rajuvisuals/storefront/lib/mystore"
	"github.com/rajuvisuals/storefront/lib/mytime"
	"github.com/rajuvisuals/storefront/lib/myuuid"
	"github.com/rajuvisuals/storefront/lib/myvault"
	"github.com/rajuvisuals/storefront/services/catalog"
	"github.com/rajuvisuals/storefront/services/checkoutrazorpay"
	"github.com/rajuvisuals/storefront/services/checkoutstripe"
	"github.com/rajuvisuals/storefront/services/contact"
	"github.com/rajuvisuals/storefront/services/receipt"
	"github.com/rajuvisuals/storefront/services/sitecontent"
	"github.com/rajuvisuals/storefront/services/storeapi"
)

func main() {
	c := context.Background()

	cfg, err := config.Parse()
	if err != nil {
		log.Fatalf("Error parsing configuration: %s", err)
	}

	router := mux.NewRouter()

	nower := mytime.RealNower{}
	uuider := myuuid.RealUUIDer{}

	assetStore, assetStoreCleanup, err := mystore.New[storeapi.Asset](c)
	if err != nil {
		log.Fatalf("Error creating asset store: %s", err)
	}
	defer assetStoreCleanup()

	checkoutStore, checkoutStoreCleanup, err := mystore.New[storeapi.CheckoutContext](c)
	if err != nil {
		log.Fatalf("Error creating checkout store: %s", err)
	}
	defer checkoutStoreCleanup()

	purchaseStore, purchaseStoreCleanup, err := mystore.New[storeapi.Purchase](c)
	if err != nil {
		log.Fatalf("Error creating purchase store: %s", err)
	}
	defer purchaseStoreCleanup()

	paymentRefStore, paymentRefStoreCleanup, err := mystore.New[receipt.PaymentRef](c)
	if err != nil {
		log.Fatalf("Error creating payment-ref store: %s", err)
	}
	defer paymentRefStoreCleanup()

	messageStore, messageStoreCleanup, err := mystore.New[contact.ContactMessage](c)
	if err != nil {
		log.Fatalf("Error creating contact-message store: %s", err)
	}
	defer messageStoreCleanup()

	contentStore, contentStoreCleanup, err := mystore.New[sitecontent.SiteContent](c)
	if err != nil {
		log.Fatalf("Error creating site-content store: %s", err)
	}
	defer contentStoreCleanup()

	vault, vaultCleanup, err := myvault.New(c)
	if err != nil {
		log.Fatalf("Error creating vault: %s", err)
	}
	defer vaultCleanup()

	pubsub, pubsubCleanup, err := mypubsub.New(c)
	if err != nil {
		log.Fatalf("Error creating pubsub: %s", err)
	}
	defer pubsubCleanup()

	queue, queueCleanup, err := myqueue.New(c)
	if err != nil {
		log.Fatalf("Error creating task queue: %s", err)
	}
	defer queueCleanup()

	publisher, publisherCleanup, err := mypublisher.New(c, pubsub, queue, nower)
	if err != nil {
		log.Fatalf("Error creating publisher: %s", err)
	}
	defer publisherCleanup()
	publisher.RegisterEndpoints(c, router)

	razorpayCreds, stripeCreds := seedVault(c, cfg, vault, nower)

	assetCache := mycache.New[[]storeapi.Asset](cfg.AssetCacheTTL, nower)
	catalogService := catalog.NewWebService(assetStore, assetCache)
	err = catalogService.RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering catalog service: %s", err)
	}

	receiptService := receipt.NewWebService(purchaseStore, paymentRefStore, assetStore, nower, uuider, pubsub, publisher)
	err = receiptService.RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering receipt service: %s", err)
	}

	razorpayService := checkoutrazorpay.NewWebService(razorpayCreds, checkoutrazorpay.NewPayer(), nower, uuider, vault,
		checkoutStore, assetStore, receiptService.PurchaseCreator(), publisher)
	err = razorpayService.RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering razorpay checkout service: %s", err)
	}

	stripeService := checkoutstripe.NewWebService(stripeCreds, checkoutstripe.NewPayer(), nower, uuider, vault,
		checkoutStore, assetStore, publisher)
	err = stripeService.RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering stripe checkout service: %s", err)
	}

	contactService := contact.NewWebService(contact.Config{
		Enabled:     cfg.ContactEmailEnabled,
		AdminEmail:  cfg.ContactAdminEmail,
		FromAddress: cfg.ContactFromAddress,
	}, messageStore, contact.NewResendSender(cfg.ResendAPIKey), nower, uuider)
	err = contactService.RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering contact service: %s", err)
	}

	contentService := sitecontent.NewWebService(contentStore, sitecontent.SiteContent{
		HeroTitle:    "Raju Visuals",
		HeroSubtitle: "Cinematic edits, presets and overlays",
		ThemeColor:   cfg.ThemeColor,
		ContactEmail: cfg.ContactAdminEmail,
	})
	err = contentService.RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering site-content service: %s", err)
	}

	startWebServerBlocking(router, cfg.Port)
}

// seedVault stores the credentials provided via the environment so services
// pick them up the same way they would pick up rotated ones.
func seedVault(c context.Context, cfg config.Config, vault myvault.VaultReadWriter, nower mytime.Nower) (myvault.Credentials, myvault.Credentials) {
	razorpayCreds := myvault.Credentials{
		ProviderName:  "razorpay",
		KeyID:         cfg.RazorpayKeyID,
		KeySecret:     cfg.RazorpayKeySecret,
		WebhookSecret: cfg.RazorpayWebhookSecret,
		CreatedAt:     nower.Now(),
	}
	if razorpayCreds.KeyID != "" {
		err := vault.Put(c, myvault.UIDFor(razorpayCreds.ProviderName), razorpayCreds)
		if err != nil {
			log.Fatalf("Error storing razorpay credentials: %s", err)
		}
	}

	stripeCreds := myvault.Credentials{
		ProviderName:  "stripe",
		KeySecret:     cfg.StripeAPIKey,
		WebhookSecret: cfg.StripeWebhookSecret,
		CreatedAt:     nower.Now(),
	}
	if stripeCreds.KeySecret != "" {
		err := vault.Put(c, myvault.UIDFor(stripeCreds.ProviderName), stripeCreds)
		if err != nil {
			log.Fatalf("Error storing stripe credentials: %s", err)
		}
	}

	return razorpayCreds, stripeCreds
}

func startWebServerBlocking(router *mux.Router, port string) {
	log.Printf("Starting webserver on port %s (try http://localhost:%s)", port, port)
	err := http.ListenAndServe(fmt.Sprintf(":%s", port), router)
	if err != nil {
		log.Fatalf("Error starting webserver on port %s: %s", port, err)
	}
}
