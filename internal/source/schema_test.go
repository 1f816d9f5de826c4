package source

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/retailpulse/internal/contracts"
)

func TestCheckColumns(t *testing.T) {
	err := CheckColumns(contracts.TableInventory, []string{"store_id", "current_stock_level", "extra"})
	require.Error(t, err)

	var schemaErr *contracts.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, contracts.TableInventory, schemaErr.Table)
	assert.Equal(t, []string{"product_id"}, schemaErr.Missing)
	assert.Contains(t, err.Error(), "inventory")

	assert.NoError(t, CheckColumns(contracts.TableInventory, []string{"store_id", "product_id", "current_stock_level"}))
}

func TestCheckTables_MissingTable(t *testing.T) {
	columns := make(map[string][]string)
	for table, cols := range RequiredColumns {
		columns[table] = cols
	}
	delete(columns, contracts.TableStores)
	columns[contracts.TableLines] = []string{"line_item_id"}

	err := CheckTables(columns)
	require.Error(t, err)

	var schemaErr *contracts.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Contains(t, err.Error(), contracts.TableStores)
	assert.Contains(t, err.Error(), "promotion_id")
}

func TestCheckTables_OK(t *testing.T) {
	assert.NoError(t, CheckTables(RequiredColumns))
}

func TestTables_CoverRequiredColumns(t *testing.T) {
	assert.Len(t, Tables(), len(RequiredColumns))
	for _, table := range Tables() {
		assert.Contains(t, RequiredColumns, table)
	}
}
