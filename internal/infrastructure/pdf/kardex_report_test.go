package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Kardex-api/internal/domain/entity"
)

func TestMoney(t *testing.T) {
	assert.Equal(t, "$0,00", money("$", decimal.Zero))
	assert.Equal(t, "$1.234,50", money("$", decimal.RequireFromString("1234.5")))
	assert.Equal(t, "S/1.000.000,00", money("S/", decimal.NewFromInt(1000000)))
	assert.Equal(t, "-$25,00", money("$", decimal.NewFromInt(-25)))
}

func TestValuation(t *testing.T) {
	p := entity.Product{Stock: 7, PurchasePrice: decimal.RequireFromString("10.25")}
	assert.True(t, decimal.RequireFromString("71.75").Equal(Valuation(p)))
}

func TestGenerate(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	rep := KardexReport{
		Company:     &entity.Company{ID: 1, Name: "Acme", CurrencySymbol: "$"},
		GeneratedAt: at,
		Entries: []entity.KardexEntry{
			{Movement: entity.Movement{ID: 1, Date: at, Kind: entity.MovementKindIn, Quantity: 10, Status: 1, Detail: "Movimiento de entrada"}, ProductDescription: "Widget", UserName: "Ana", Balance: 10},
			{Movement: entity.Movement{ID: 2, Date: at, Kind: entity.MovementKindOut, Quantity: 3, Status: 1, Detail: "Movimiento de salida"}, ProductDescription: "Widget", UserName: "Ana", Balance: 7},
		},
		Products: []entity.Product{{ID: 1, Description: "Widget", Stock: 7, MinStock: 2, PurchasePrice: decimal.NewFromInt(10)}},
	}
	out, err := NewKardexReportGenerator().Generate(context.Background(), rep)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestGenerate_RequiresCompany(t *testing.T) {
	_, err := NewKardexReportGenerator().Generate(context.Background(), KardexReport{})
	assert.Error(t, err)
}
