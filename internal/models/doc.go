// Package models defines the domain records of the debt ledger.
//
// # Stored records
//
//   - Debt: one obligation between the business and a contact
//   - DebtPayment: a partial or full payment recorded against a Debt
//
// # Derived records
//
//   - ContactDebtSummary: per-contact fold of every Debt, recomputed on
//     each read and never persisted
//
// Amounts are shopspring decimals so sums are exact at the currency's
// minor-unit precision.
//
// Records read from a store pass through NormalizeDebt once, so code past
// the storage boundary never has to deal with legacy field values.
package models
