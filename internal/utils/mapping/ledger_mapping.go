package mapping

import (
	"github.com/SscSPs/study_coins/internal/core/domain"
	"github.com/SscSPs/study_coins/internal/models"
)

// ToModelAuditFields converts a domain AuditFields to a model AuditFields
func ToModelAuditFields(d domain.AuditFields) models.AuditFields {
	return models.AuditFields{
		CreatedAt:     d.CreatedAt,
		CreatedBy:     d.CreatedBy,
		LastUpdatedAt: d.LastUpdatedAt,
		LastUpdatedBy: d.LastUpdatedBy,
	}
}

// ToDomainAuditFields converts a model AuditFields to a domain AuditFields
func ToDomainAuditFields(m models.AuditFields) domain.AuditFields {
	return domain.AuditFields{
		CreatedAt:     m.CreatedAt,
		CreatedBy:     m.CreatedBy,
		LastUpdatedAt: m.LastUpdatedAt,
		LastUpdatedBy: m.LastUpdatedBy,
	}
}

// ToModelCoinAccount converts a domain CoinAccount to a model CoinAccount
func ToModelCoinAccount(d domain.CoinAccount) models.CoinAccount {
	return models.CoinAccount{
		AccountID:   d.AccountID,
		Balance:     d.Balance,
		EntryCount:  d.EntryCount,
		AuditFields: ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainCoinAccount converts a model CoinAccount to a domain CoinAccount
func ToDomainCoinAccount(m models.CoinAccount) domain.CoinAccount {
	return domain.CoinAccount{
		AccountID:   m.AccountID,
		Balance:     m.Balance,
		EntryCount:  m.EntryCount,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelLedgerEntry converts a domain LedgerEntry to a model LedgerEntry
func ToModelLedgerEntry(d domain.LedgerEntry) models.LedgerEntry {
	return models.LedgerEntry{
		EntryID:          d.EntryID,
		AccountID:        d.AccountID,
		Sequence:         d.Sequence,
		Kind:             models.EntryKind(d.Kind),
		Amount:           d.Amount,
		Reason:           d.Reason,
		RelatedResource:  d.RelatedResource,
		IdempotencyKey:   d.IdempotencyKey,
		ResultingBalance: d.ResultingBalance,
		CreatedAt:        d.CreatedAt,
		CreatedBy:        d.CreatedBy,
	}
}

// ToDomainLedgerEntry converts a model LedgerEntry to a domain LedgerEntry
func ToDomainLedgerEntry(m models.LedgerEntry) domain.LedgerEntry {
	return domain.LedgerEntry{
		EntryID:          m.EntryID,
		AccountID:        m.AccountID,
		Sequence:         m.Sequence,
		Kind:             domain.EntryKind(m.Kind),
		Amount:           m.Amount,
		Reason:           m.Reason,
		RelatedResource:  m.RelatedResource,
		IdempotencyKey:   m.IdempotencyKey,
		ResultingBalance: m.ResultingBalance,
		CreatedAt:        m.CreatedAt,
		CreatedBy:        m.CreatedBy,
	}
}

// ToDomainLedgerEntrySlice converts a slice of model LedgerEntries to a slice of domain LedgerEntries
func ToDomainLedgerEntrySlice(ms []models.LedgerEntry) []domain.LedgerEntry {
	ds := make([]domain.LedgerEntry, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainLedgerEntry(m)
	}
	return ds
}
