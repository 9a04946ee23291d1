package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintTable_AlignsColumns(t *testing.T) {
	var buf bytes.Buffer
	printTable(&buf, []string{"NAME", "LAYER"}, [][]string{
		{"lakehouse.silver.orders", "silver"},
		{"lakehouse.gold.revenue_by_region", "gold"},
	})

	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "lakehouse.silver.orders")
	assert.Contains(t, out, "gold")
}

func TestPrintJSON_Indents(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, map[string]int{"tables": 3}))
	assert.Equal(t, "{\n  \"tables\": 3\n}\n", buf.String())
}

func TestValidateOutputFormat(t *testing.T) {
	assert.NoError(t, validateOutputFormat(""))
	assert.NoError(t, validateOutputFormat("table"))
	assert.NoError(t, validateOutputFormat("json"))
	assert.Error(t, validateOutputFormat("yaml"))
}

func TestDash(t *testing.T) {
	assert.Equal(t, "-", dash(""))
	assert.Equal(t, "sales", dash("sales"))
}

func TestSplitColumnRef(t *testing.T) {
	table, column, err := splitColumnRef("silver.orders.customer_id")
	require.NoError(t, err)
	assert.Equal(t, "silver.orders", table)
	assert.Equal(t, "customer_id", column)

	table, column, err = splitColumnRef("lakehouse.silver.orders.customer_id")
	require.NoError(t, err)
	assert.Equal(t, "lakehouse.silver.orders", table)
	assert.Equal(t, "customer_id", column)

	_, _, err = splitColumnRef("noseparator")
	assert.Error(t, err)

	_, _, err = splitColumnRef("trailing.")
	assert.Error(t, err)
}
