/**
 * @description
 * This file contains the single shared denomination validator. It computes a
 * cash total from a currency-denomination breakdown and compares it to an
 * expected custody amount within the minor-unit tolerance. Bundle creation,
 * bundle acceptance, superbundle creation, and deposit matching all go through
 * this one implementation so tolerance and rounding can never diverge.
 */

package app

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/DhavalFatnani/cod-dashboard-sub001/internal/domain"
)

// TolerancePaise is the single amount-comparison tolerance used everywhere an
// expected amount is checked against a counted or received amount: one paisa
// (0.01 in major units).
const TolerancePaise int64 = 1

var (
	ErrInvalidBreakdown     = errors.New("invalid denomination breakdown")
	ErrDenominationMismatch = errors.New("denomination breakdown does not match expected amount")
)

// BreakdownTotal computes the total value of a physical cash count in paise.
// Denomination keys are note values in whole rupees. Negative or malformed
// denominations and negative counts are rejected, never silently ignored.
func BreakdownTotal(b domain.Breakdown) (int64, error) {
	var total int64
	for denom, count := range b {
		value, err := strconv.ParseInt(strings.TrimSpace(denom), 10, 64)
		if err != nil || value <= 0 {
			return 0, fmt.Errorf("%w: denomination %q is not a positive note value", ErrInvalidBreakdown, denom)
		}
		if count < 0 {
			return 0, fmt.Errorf("%w: denomination %q has negative count %d", ErrInvalidBreakdown, denom, count)
		}
		total += value * 100 * count
	}
	return total, nil
}

// ValidateBreakdown checks that the breakdown sums to the expected amount
// within TolerancePaise. An empty breakdown is valid only when the expected
// amount is zero. The returned error carries the computed and expected totals
// for operator diagnosis.
func ValidateBreakdown(b domain.Breakdown, expectedPaise int64) error {
	total, err := BreakdownTotal(b)
	if err != nil {
		return err
	}
	if !WithinTolerance(total, expectedPaise) {
		return fmt.Errorf("%w: counted %s, expected %s",
			ErrDenominationMismatch, FormatPaise(total), FormatPaise(expectedPaise))
	}
	return nil
}

// WithinTolerance reports whether two paise amounts differ by at most
// TolerancePaise.
func WithinTolerance(a, b int64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff <= TolerancePaise
}

// FormatPaise renders a paise amount in major units for error messages and
// logs, e.g. 1500002 -> "15000.02".
func FormatPaise(p int64) string {
	sign := ""
	if p < 0 {
		sign = "-"
		p = -p
	}
	return fmt.Sprintf("%s%d.%02d", sign, p/100, p%100)
}
