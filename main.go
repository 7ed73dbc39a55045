/*
Copyright 2022 The l7mp/stunner team.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vireodb/vireo/internal/buildinfo"
	"github.com/vireodb/vireo/pkg/collection"
	"github.com/vireodb/vireo/pkg/document"
	"github.com/vireodb/vireo/pkg/registry"
)

var (
	version    = "dev"
	commitHash = "n/a"
	buildDate  = "<unknown>"
)

func newLogger(development bool) (*zap.Logger, error) {
	if development {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder
		return cfg.Build()
	}
	return zap.NewProduction()
}

func main() {
	var development bool
	flag.BoolVar(&development, "development", true, "Use a human-readable development logging config instead of JSON production logging.")
	flag.Parse()

	zl, err := newLogger(development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to build logger: %v\n", err)
		os.Exit(1)
	}
	defer zl.Sync()

	log := zapr.NewLogger(zl).WithName("vireo")
	info := buildinfo.BuildInfo{Version: version, CommitHash: commitHash, BuildDate: buildDate}
	log.Info("starting vireo", "build", info.String())

	db := registry.New(log.WithName("registry"))

	widgets := collection.New("widgets", log.WithName("collection"))
	if err := db.RegisterCollection("widgets", widgets); err != nil {
		log.Error(err, "unable to register collection")
		os.Exit(1)
	}

	if _, err := widgets.Insert(
		document.Document{"name": "gizmo", "color": "red", "price": 12},
		document.Document{"name": "sprocket", "color": "blue", "price": 7},
		document.Document{"name": "widget", "color": "red", "price": 20},
	); err != nil {
		log.Error(err, "unable to seed collection")
		os.Exit(1)
	}

	redWidgets, err := db.NewCollectionView("widgets", "redWidgets", collection.Query{"color": "red"},
		collection.Options{"$orderBy": document.IndexSpec{{Field: "price", Direction: document.Ascending}}})
	if err != nil {
		log.Error(err, "unable to construct view")
		os.Exit(1)
	}

	log.Info("redWidgets materialized", "count", redWidgets.Count())
	for _, d := range redWidgets.Find(nil, nil) {
		log.Info("document", "name", d["name"], "price", d["price"])
	}

	if _, err := widgets.Insert(document.Document{"name": "gear", "color": "red", "price": 3}); err != nil {
		log.Error(err, "unable to insert")
		os.Exit(1)
	}
	log.Info("redWidgets after a matching insert", "count", redWidgets.Count())

	for _, summary := range db.Views() {
		log.Info("view summary", "name", summary.Name, "count", summary.Count, "linked", summary.Linked)
	}
}
