// Package config loads environment variables into typed structs with
// caarlos0/env. A .env file in the working directory is read once, before the
// first load, when present.
//
//	var cfg app.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
// Each struct type is parsed once per process. Later loads of the same type
// receive a copy of the cached value, so packages can load their own section
// (mongo.Config, postmark.Config) without re-reading the environment:
//
//	var mcfg mongo.Config
//	config.MustLoad(&mcfg) // MONGODB_URL, MONGODB_DATABASE
package config
