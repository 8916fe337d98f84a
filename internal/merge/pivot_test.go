package merge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/covidboard/internal/dataset"
)

func TestPivotManufacturers(t *testing.T) {
	in := dataset.MustTable([]string{"location", "date", "vaccine", "total_vaccinations"},
		[]dataset.Value{str("Chile"), day("2021-02-01"), str("Sinovac"), num(10)},
		[]dataset.Value{str("Chile"), day("2021-02-01"), str("Pfizer/BioNTech"), nul},
		[]dataset.Value{str("Italy"), day("2021-02-01"), str("Moderna"), num(3)},
		[]dataset.Value{str("Chile"), day("2021-02-02"), str("Pfizer/BioNTech"), nul},
	)

	got, err := PivotManufacturers(in, "vaccine")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"location", "date", "vaccine",
		"total_vaccinations",
		"total_vaccinations_Moderna",
		"total_vaccinations_Pfizer/BioNTech",
		"total_vaccinations_Sinovac",
	}, got.Columns())
	require.Equal(t, 3, got.Len())

	assert.Equal(t, []string{"Chile", "Italy"}, got.Locations())
	assert.Equal(t, "Pfizer/BioNTech, Sinovac", got.Get(0, "vaccine").Text())
	assert.Equal(t, 10.0, dataset.Float(got, 0, "total_vaccinations", -1))
	assert.True(t, got.Get(0, "total_vaccinations_Moderna").IsNull())

	// Every manufacturer null: the sum stays null rather than becoming 0.
	assert.True(t, got.Get(2, "total_vaccinations").IsNull())
}

func TestPivotManufacturers_DuplicateTriple(t *testing.T) {
	in := dataset.MustTable([]string{"location", "date", "vaccine", "total_vaccinations"},
		[]dataset.Value{str("Chile"), day("2021-02-01"), str("Sinovac"), num(10)},
		[]dataset.Value{str("Chile"), day("2021-02-01"), str("Sinovac"), num(11)},
	)
	_, err := PivotManufacturers(in, "vaccine")

	var dupErr *DuplicateKeyError
	require.True(t, errors.As(err, &dupErr), "err = %v", err)
	assert.Equal(t, []string{"Chile", "2021-02-01", "Sinovac"}, dupErr.Key)
}
