package mapper

import (
	"berry-advisory-be/internal/entity"
	"berry-advisory-be/internal/model"
)

type BillingMapper struct{}

func NewBillingMapper() *BillingMapper {
	return &BillingMapper{}
}

func (m *BillingMapper) TransactionToEntity(t *model.TokenTransaction) *entity.TokenTransaction {
	if t == nil {
		return nil
	}

	return &entity.TokenTransaction{
		Id:           t.Id,
		UserId:       t.UserId,
		Operation:    entity.TokenOperation(t.Operation),
		Amount:       t.Amount,
		BalanceAfter: t.BalanceAfter,
		Reference:    t.Reference,
		CreatedAt:    t.CreatedAt,
	}
}

func (m *BillingMapper) TransactionToModel(t *entity.TokenTransaction) *model.TokenTransaction {
	if t == nil {
		return nil
	}

	return &model.TokenTransaction{
		Id:           t.Id,
		UserId:       t.UserId,
		Operation:    string(t.Operation),
		Amount:       t.Amount,
		BalanceAfter: t.BalanceAfter,
		Reference:    t.Reference,
		CreatedAt:    t.CreatedAt,
	}
}
