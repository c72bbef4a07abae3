// Package konturapi automates the mk.kontur.ru marking-codes portal: it
// keeps an authenticated session alive from externally harvested
// credentials, drives codes orders from creation through signing to
// released label files, introduces marked goods into circulation, and
// refreshes the portal's CRPT tokens.
//
// The portal has no public API; this package speaks the private REST
// endpoints of the browser frontend, which is why sessions ride on
// harvested cookies and expire after roughly 13 minutes. A background
// refresher rebuilds the session before that, so workflows never see an
// expired one.
//
// Signing happens through the external CryptoPro command-line tools.
// The provider is not proven thread-safe, so all signing is serialized
// process-wide regardless of how many workflows run in parallel.
//
// Typical use:
//
//	cfg, err := konturapi.LoadConfig("kontur.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := cfg.FromEnv(); err != nil {
//		log.Fatal(err)
//	}
//	client, err := konturapi.New(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	result, err := client.Orders().Run(ctx, konturapi.OrderRequest{
//		DocumentNumber: "ORD-2025-105",
//		Positions: []konturapi.Position{
//			{GTIN: "04620047890123", Name: "Перчатки нитриловые M", Quantity: 500},
//		},
//	})
package konturapi
