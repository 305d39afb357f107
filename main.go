// Copyright © 2025 M Varma Group

// This file is part of Qrgate <https://github.com/m-varma-group/qrgate>.

// Qrgate is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License
// as published by the Free Software Foundation,
// either version 3 of the License, or (at your option)
// any later version.

// Qrgate is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public License
// along with Qrgate.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"github.com/nats-io/nats.go"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"

	"github.com/m-varma-group/qrgate/config"
	"github.com/m-varma-group/qrgate/gate"
	"github.com/m-varma-group/qrgate/gateway"
	"github.com/m-varma-group/qrgate/logging"
	"github.com/m-varma-group/qrgate/messaging"
	"github.com/m-varma-group/qrgate/mongodb"
	"github.com/m-varma-group/qrgate/operator"
	"github.com/m-varma-group/qrgate/policy"
	"github.com/m-varma-group/qrgate/snapshot"
	"github.com/m-varma-group/qrgate/storage"
	"github.com/m-varma-group/qrgate/tracing"
)

func main() {
	fx.New(
		logging.Module,
		messaging.Module,
		config.Module,
		mongodb.Module,
		tracing.Module,
		logging.FxLogger(),
		fx.Provide(policy.NewMigrations),
		fx.Provide(func(viper *viper.Viper, nc *nats.Conn, logger *logging.Logger) storage.Client {
			return storage.NewStorageClient(viper.GetString("storage.provider"), nc, logger)
		}),
		fx.Decorate(func(viper *viper.Viper) *viper.Viper {
			viper.SetDefault("tracing.serviceName", "qrgate")
			viper.SetDefault("storage.provider", "drive")
			return viper
		}),
		fx.Decorate(func(client *mongo.Client, viper *viper.Viper) *mongo.Client {
			viper.SetDefault("mongo.db", "qrgate")
			return client
		}),
		snapshot.Module,
		policy.Module,
		policy.AuditModule,
		gate.Module,
		gate.HandlerModule,
		operator.Module,
		gateway.Module,
		fx.Invoke(func(gateway.Gateway) {}),
	).Run()
}
