package validator

import (
	"testing"

	"go-variant-inventory/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type adjustInput struct {
	ProductID       uuid.UUID             `validate:"uuid_required"`
	Color           string                `validate:"required"`
	TransactionType model.TransactionType `validate:"txtype"`
}

func TestValidateStruct_Valid(t *testing.T) {
	errs := ValidateStruct(adjustInput{ProductID: uuid.New(), Color: "Red", TransactionType: model.TxRestock})
	assert.Empty(t, errs)
}

func TestValidateStruct_CustomRules(t *testing.T) {
	errs := ValidateStruct(adjustInput{Color: "Red", TransactionType: "IN"})

	tags := map[string]string{}
	for _, e := range errs {
		tags[e.FailedField] = e.Tag
	}
	assert.Equal(t, "uuid_required", tags["adjustInput.ProductID"])
	assert.Equal(t, "txtype", tags["adjustInput.TransactionType"])
}

func TestValidateStruct_StockCheckRequest(t *testing.T) {
	errs := ValidateStruct(model.StockCheckRequest{ProductID: uuid.New(), Color: "Red", Size: "M", RequestedQuantity: 0})
	assert.Len(t, errs, 1)
	assert.Equal(t, "gt", errs[0].Tag)
}

func TestMessage(t *testing.T) {
	msg := Message([]*ErrorResponse{{FailedField: "X.Colors", Tag: "min"}, {FailedField: "X.Sizes", Tag: "required"}})
	assert.Equal(t, "Validation failed: Field 'X.Colors' failed on tag 'min'; Field 'X.Sizes' failed on tag 'required'", msg)
}
