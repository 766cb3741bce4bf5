// gradeframe - annotate and grade PDF submissions
// Copyright (C) 2026  The gradeframe authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package grade

import (
	"strconv"
	"strings"
)

// DisplayPoints computes the points shown for one task of one document.
//
// In Manual mode the stored override is returned, or 0 if none is set.
// In Additive mode the positive annotation points of the task are summed;
// negative and zero-valued annotations do not contribute.  In Subtractive
// mode the negative annotation points are added to the task's maximum, with
// a floor at zero; positive annotations do not contribute.
//
// Absent data counts as zero, the function never fails.
func DisplayPoints(task Task, g PdfGrading) float64 {
	if task.Mode == Manual {
		return g.ManualPoints[task.ID]
	}

	var sum float64
	for _, a := range g.Annotations {
		if a.TaskID != task.ID {
			continue
		}
		switch task.Mode {
		case Subtractive:
			if a.Points < 0 {
				sum += a.Points
			}
		default: // additive
			if a.Points > 0 {
				sum += a.Points
			}
		}
	}

	if task.Mode == Subtractive {
		return max(0, task.MaxPoints+sum)
	}
	return sum
}

// DocumentTotal is the sum of the displayed points over all tasks.
func DocumentTotal(tasks []Task, g PdfGrading) float64 {
	var total float64
	for _, t := range tasks {
		total += DisplayPoints(t, g)
	}
	return total
}

// MaxTotal is the sum of the task maxima, independent of mode.
func MaxTotal(tasks []Task) float64 {
	var total float64
	for _, t := range tasks {
		total += t.MaxPoints
	}
	return total
}

// FormatPoints renders a point value without trailing zeros, e.g. "1.5"
// or "3".
func FormatPoints(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

// FormatSigned renders a point value with an explicit sign for positive
// values, e.g. "+1", "-0.5", "0".
func FormatSigned(p float64) string {
	s := FormatPoints(p)
	if p > 0 {
		return "+" + s
	}
	return s
}

// IsNumericLabel reports whether a label is nothing but a (possibly
// signed) number, like the auto-generated labels of raw point stamps.
func IsNumericLabel(label string) bool {
	s := strings.TrimSpace(label)
	s = strings.TrimPrefix(s, "+")
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
