// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

// Package testinfra provides test doubles for the services the pipeline
// talks to.
//
// # Telegram Bot API
//
// MockTelegramServer is an httptest server that answers sendMessage and
// getFile and serves file downloads. It is available to ordinary unit tests:
//
//	tg := testinfra.NewMockTelegramServer(t, "123:TOKEN")
//	tg.AddFile("photo-1", "photos/file_0.jpg", jpegBytes)
//	client := telegram.NewClient(telegram.Config{Token: "123:TOKEN", APIURL: tg.URL()})
//	// ...
//	sent := tg.WaitForMessages(2, 5*time.Second)
//
// # NATS Container
//
// With the integration build tag, NewNATSContainer starts a real NATS
// server with JetStream through testcontainers-go:
//
//	func TestPipelineOverNATS(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    natsC, err := testinfra.NewNATSContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, natsC)
//	    // use natsC.URL as BusConfig.NATS.URL
//	}
//
// # CI Considerations
//
// Container tests require Docker and are skipped gracefully when it is
// unavailable. The first run downloads the NATS image.
package testinfra
