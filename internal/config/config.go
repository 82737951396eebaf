package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

type Application struct {
	Host     string   `koanf:"host"`
	Server   Server   `koanf:"server"`
	Database Database `koanf:"db"`
	Forecast Forecast `koanf:"forecast"`
	Detector Detector `koanf:"detector"`
}

type Server struct {
	Port int `koanf:"port"`
}

type Database struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Pass     string `koanf:"pass"`
	Name     string `koanf:"name"`
	Schema   string `koanf:"schema"`
	MaxConns int32  `koanf:"maxconns"`
	MinConns int32  `koanf:"minconns"`
}

type Forecast struct {
	HorizonMonths       int    `koanf:"horizonmonths"`
	ExpandFutureRules   bool   `koanf:"expandfuturerules"`
	LowBalanceThreshold string `koanf:"lowbalancethreshold"`
	Currency            string `koanf:"currency"`
}

type Detector struct {
	MinOccurrences    int      `koanf:"minoccurrences"`
	MinSpanDays       int      `koanf:"minspandays"`
	MinIntervalDays   int      `koanf:"minintervaldays"`
	MaxIntervalDays   int      `koanf:"maxintervaldays"`
	MinAmount         string   `koanf:"minamount"`
	Classification    string   `koanf:"classification"`
	ExcludedMerchants []string `koanf:"excludedmerchants"`
}

var DefaultExcludedMerchants = []string{
	"starbucks", "dunkin", "uber eats", "doordash", "grubhub",
	"mcdonald's", "burger king", "taco bell", "chipotle", "subway",
}

func Defaults() Application {
	return Application{
		Host: "http://localhost:3000",
		Server: Server{
			Port: 8181,
		},
		Database: Database{
			Host:     "localhost",
			Port:     5432,
			User:     "forecastly",
			Pass:     "",
			Name:     "forecastly",
			Schema:   "forecastly",
			MaxConns: 25,
			MinConns: 2,
		},
		Forecast: Forecast{
			HorizonMonths:       12,
			ExpandFutureRules:   false,
			LowBalanceThreshold: "0",
			Currency:            "USD",
		},
		Detector: Detector{
			MinOccurrences:    3,
			MinSpanDays:       60,
			MinIntervalDays:   25,
			MaxIntervalDays:   35,
			MinAmount:         "10",
			Classification:    "outflow",
			ExcludedMerchants: DefaultExcludedMerchants,
		},
	}
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(Defaults(), "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: "FORECASTLY_",
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, "FORECASTLY_")), "_", ".")
			if k == "detector.excludedmerchants" {
				return k, strings.Split(v, ",")
			}
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	return app, nil
}
