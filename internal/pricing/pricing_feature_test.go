package pricing

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cucumber/godog"
)

type pricingTestContext struct {
	basePrice int64
	baseSize  string
	price     int64
	err       error
}

func (p *pricingTestContext) reset() {
	*p = pricingTestContext{}
}

func (p *pricingTestContext) aProductPricedAtFor(price int, size string) error {
	p.basePrice = int64(price)
	p.baseSize = size
	return nil
}

func (p *pricingTestContext) iQuoteThePack(size string) error {
	p.price, p.err = ComputePrice(p.basePrice, p.baseSize, size)
	return nil
}

func (p *pricingTestContext) iQuoteThePackForDisplay(size string) error {
	p.price = QuoteOrBase(nil, p.basePrice, p.baseSize, size)
	return nil
}

func (p *pricingTestContext) thePriceIs(want int) error {
	if p.err != nil {
		return fmt.Errorf("expected a price but got error: %v", p.err)
	}
	if p.price != int64(want) {
		return fmt.Errorf("expected price %d, got %d", want, p.price)
	}
	return nil
}

func (p *pricingTestContext) theSizeIsRejected() error {
	if p.err == nil {
		return errors.New("expected an unparseable size error")
	}
	if !errors.Is(p.err, ErrUnparseableSize) {
		return fmt.Errorf("expected unparseable size, got %v", p.err)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &pricingTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	ctx.Step(`^a product priced at (\d+) for "([^"]*)"$`, tc.aProductPricedAtFor)
	ctx.Step(`^I quote the "([^"]*)" pack$`, tc.iQuoteThePack)
	ctx.Step(`^I quote the "([^"]*)" pack for display$`, tc.iQuoteThePackForDisplay)
	ctx.Step(`^the price is (\d+)$`, tc.thePriceIs)
	ctx.Step(`^the size is rejected$`, tc.theSizeIsRejected)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"../../features/pricing.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
