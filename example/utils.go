package main

import (
	"errors"
	"fmt"
	"math/big"

	flowcore "github.com/flowcore/sdk-go"
)

var health = flowcore.
	NewService("health").
	Handler("ping", flowcore.NewServiceHandler(
		func(flowcore.Context, flowcore.Void) (flowcore.Void, error) {
			return flowcore.Void{}, nil
		}))

var bigCounter = flowcore.
	NewObject("bigCounter").
	Handler("add", flowcore.NewObjectHandler(
		func(ctx flowcore.ObjectContext, deltaText string) (string, error) {
			delta, ok := big.NewInt(0).SetString(deltaText, 10)
			if !ok {
				return "", flowcore.TerminalError(fmt.Errorf("input must be a valid integer string: %s", deltaText))
			}

			bytes, err := ctx.Get("counter")
			if err != nil && !errors.Is(err, flowcore.ErrKeyNotFound) {
				return "", err
			}
			newCount := big.NewInt(0).Add(big.NewInt(0).SetBytes(bytes), delta)
			ctx.Set("counter", newCount.Bytes())

			return newCount.String(), nil
		})).
	Handler("get", flowcore.NewObjectHandler(
		func(ctx flowcore.ObjectContext, _ flowcore.Void) (string, error) {
			bytes, err := ctx.Get("counter")
			if err != nil && !errors.Is(err, flowcore.ErrKeyNotFound) {
				return "", err
			}

			return big.NewInt(0).SetBytes(bytes).String(), nil
		}))
