package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/damon-houk/currency-converter/internal/application/service"
	"github.com/damon-houk/currency-converter/internal/config"
	"github.com/damon-houk/currency-converter/internal/domain/entity"
	"github.com/damon-houk/currency-converter/internal/infrastructure/api"
	"github.com/damon-houk/currency-converter/internal/infrastructure/cache"
	"github.com/damon-houk/currency-converter/internal/infrastructure/db"
	"github.com/damon-houk/currency-converter/internal/infrastructure/logger"
)

// the static table still answers once this runs out
const runTimeout = 2 * time.Minute

// One-shot conversion from the command line:
//
//	currency-converter -amount 100 -from USD -to EUR
func main() {
	amount := flag.String("amount", "", "amount to convert")
	from := flag.String("from", entity.BaseCurrency, "source currency code")
	to := flag.String("to", "EUR", "target currency code")
	swap := flag.Bool("swap", false, "convert the result back with the currencies exchanged")
	flag.Parse()

	// keep stdout for the result
	log := logger.NewJSONLogger(os.Stderr, logger.WarnLevel)
	logger.SetDefaultLogger(log)

	if err := run(log, *amount, *from, *to, *swap); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(log logger.Logger, amount, from, to string, swap bool) error {
	cfg, err := config.Load(log)
	if err != nil {
		return err
	}

	// history is not kept between CLI runs
	memDB, err := db.Open("")
	if err != nil {
		return err
	}
	defer memDB.Close()

	sources := api.NewHTTPRateSources(cfg.Rates.Sources, cfg.Rates.HTTPTimeout, cfg.Rates.MaxRetries, log)
	provider := api.NewFallbackRateProvider(sources, cache.NewExchangeRateCache(cfg.Rates.CacheSizeBytes, cfg.Rates.CacheTTL), log)
	converter := service.NewConverterService(provider, db.NewBadgerHistoryRepository(memDB, log), nil, log)

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	converter.Initialize(ctx)

	convert := converter.Convert
	if swap {
		convert = converter.Swap
	}

	view, err := convert(ctx, amount, from, to)
	switch {
	case errors.Is(err, entity.ErrInvalidAmount):
		return errors.New("enter an amount to convert")
	case errors.Is(err, entity.ErrUnsupportedCurrency):
		return fmt.Errorf("currency not supported: %s -> %s", from, to)
	case err != nil:
		return err
	}

	fmt.Println(view.Display.Headline)
	fmt.Println(view.Display.Detail)
	fmt.Println(view.RateInfo.Pair)
	fmt.Println(view.RateInfo.Status)
	return nil
}
