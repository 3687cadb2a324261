// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rules

import (
	"time"

	"gitlab.com/tozd/go/errors"
)

const (
	// DateLayout is the processing date layout (YYYYMMDD)
	DateLayout = "20060102"

	declaredMonthLayout = "02/01/2006"
	declaredMonthCutoff = 15
)

// ErrInvalidDate is returned when a processing date does not parse as YYYYMMDD
var ErrInvalidDate = errors.New("invalid processing date")

// 📅 PreviousDeclaredMonth returns the declared month for a processing date as
// 01/MM/YYYY: the month before the processing month from the 15th onwards,
// two months before it until the 14th.
func PreviousDeclaredMonth(date string) (string, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", errors.Errorf("%w %q: %s", ErrInvalidDate, date, err.Error())
	}

	target := firstOfMonth(firstOfMonth(t).AddDate(0, 0, -1))
	if t.Day() < declaredMonthCutoff {
		target = firstOfMonth(target.AddDate(0, 0, -1))
	}

	return target.Format(declaredMonthLayout), nil
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
