package services

import (
	"testing"

	"warehouse-sim-api/pkg/models"

	"github.com/stretchr/testify/assert"
)

func TestLabelEncoderFitAndEncode(t *testing.T) {
	e := NewLabelEncoder("market_trend")
	e.Fit([]string{"neutral", "bullish", "bearish", "bullish", "neutral"})

	// 語彙はソート順でコード化される
	assert.Equal(t, []string{"bearish", "bullish", "neutral"}, e.Classes())

	codes, err := e.Encode([]string{"bullish", "bearish", "neutral"})
	assert.NoError(t, err)
	assert.Equal(t, []int{1, 0, 2}, codes)
}

func TestLabelEncoderStableAcrossFits(t *testing.T) {
	// 同じ語彙なら投入順が違ってもコードは同じになる
	e1 := NewLabelEncoder("item")
	e1.Fit([]string{"Wheat", "Rice", "Sugar"})
	e2 := NewLabelEncoder("item")
	e2.Fit([]string{"Sugar", "Wheat", "Rice", "Wheat"})

	c1, err := e1.Encode([]string{"Rice", "Sugar", "Wheat"})
	assert.NoError(t, err)
	c2, err := e2.Encode([]string{"Rice", "Sugar", "Wheat"})
	assert.NoError(t, err)
	assert.Equal(t, c1, c2)
}

func TestLabelEncoderUnknownCategory(t *testing.T) {
	e := NewLabelEncoder("item")
	e.Fit([]string{"Wheat", "Rice"})

	_, err := e.Encode([]string{"Wheat", "Uranium"})
	assert.Error(t, err)

	var unknownErr *models.UnknownCategoryError
	assert.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "item", unknownErr.Field)
	assert.Equal(t, "Uranium", unknownErr.Value)
}

func TestLabelEncoderDecode(t *testing.T) {
	e := NewLabelEncoder("item")
	e.Fit([]string{"Wheat", "Rice", "Sugar"})

	values, err := e.Decode([]int{0, 1, 2})
	assert.NoError(t, err)
	assert.Equal(t, []string{"Rice", "Sugar", "Wheat"}, values)

	_, err = e.Decode([]int{5})
	assert.Error(t, err)
}
