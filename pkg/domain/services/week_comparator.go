package services

import (
	"regexp"
	"strings"

	"github.com/LotfiJL/Jelo/pkg/domain/entities"
)

// WeekComparator orders week labels in planning sequence.
// Labels are compared by their numeric groups ("S9" < "S10", "2024-W52" < "2025-W01").
// Labels without digits compare equal to each other and after any numbered label,
// leaving source order as the tiebreak.
type WeekComparator struct {
	numberPattern *regexp.Regexp
}

// NewWeekComparator creates a new week comparator
func NewWeekComparator() *WeekComparator {
	return &WeekComparator{
		numberPattern: regexp.MustCompile(`\d+`),
	}
}

// CompareWeeks compares two week labels
// Returns: -1 if week1 < week2, 0 if not distinguishable, 1 if week1 > week2
func (wc *WeekComparator) CompareWeeks(week1, week2 entities.Week) int {
	if week1 == week2 {
		return 0
	}

	nums1 := wc.numberPattern.FindAllString(string(week1), -1)
	nums2 := wc.numberPattern.FindAllString(string(week2), -1)

	switch {
	case len(nums1) == 0 && len(nums2) == 0:
		return 0
	case len(nums1) == 0:
		return 1
	case len(nums2) == 0:
		return -1
	}

	for i := 0; i < len(nums1) && i < len(nums2); i++ {
		if c := compareDigits(nums1[i], nums2[i]); c != 0 {
			return c
		}
	}

	switch {
	case len(nums1) < len(nums2):
		return -1
	case len(nums1) > len(nums2):
		return 1
	}
	return 0
}

// CompareRows orders rows by reference, then week, then source position
func (wc *WeekComparator) CompareRows(a, b *entities.PlanningRow) int {
	if c := strings.Compare(string(a.Reference), string(b.Reference)); c != 0 {
		return c
	}
	if c := wc.CompareWeeks(a.Week, b.Week); c != 0 {
		return c
	}
	switch {
	case a.SourceIndex < b.SourceIndex:
		return -1
	case a.SourceIndex > b.SourceIndex:
		return 1
	}
	return 0
}

// compareDigits compares two digit strings of any length without overflow
func compareDigits(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}
