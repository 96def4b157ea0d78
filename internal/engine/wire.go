//go:build wireinject

//go:generate wire

package engine

import (
	"io"

	"github.com/SafeMPC/identity-core/internal/cipher"
	"github.com/SafeMPC/identity-core/internal/config"
	"github.com/SafeMPC/identity-core/internal/identity"
	"github.com/SafeMPC/identity-core/internal/metrics"
	"github.com/SafeMPC/identity-core/internal/signing"
	"github.com/SafeMPC/identity-core/internal/stealth"
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
)

// INJECTORS - https://github.com/google/wire/blob/main/docs/guide.md#injectors

// engineSet groups the providers shared by every injector; the random source is supplied per injector
var engineSet = wire.NewSet(
	newEngineWithComponents,
	NewKernel,
	NewCurveFactory,
	NewSymmetric,
	NewPlaintextCache,
	NewBitcoinAdapter,
	NewStealthEncoder,
	cipher.NewAsymmetric,
	signing.NewService,
	stealth.NewService,
	identity.NewService,
	metrics.New,
)

// InitNewEngine returns a new Engine reading randomness from crypto/rand.
func InitNewEngine(
	_ config.Engine,
	_ prometheus.Registerer,
) (*Engine, error) {
	wire.Build(engineSet, NewRandom)
	return new(Engine), nil
}

// InitNewEngineWithRandom returns a new Engine with the given random source.
// All the other components are initialized via go wire according to the configuration.
func InitNewEngineWithRandom(
	_ config.Engine,
	_ prometheus.Registerer,
	_ io.Reader,
) (*Engine, error) {
	wire.Build(engineSet)
	return new(Engine), nil
}
