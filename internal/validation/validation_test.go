/*
 * Copyright 2025 The Collabboard Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package validation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidation(t *testing.T) {
	t.Run("ValidateValue test", func(t *testing.T) {
		err := ValidateValue("#1a2B3c", "required,hexcolor")
		assert.Nil(t, err, "valid hex color")

		err = ValidateValue("#000", "required,hexcolor")
		assert.Nil(t, err, "short hex color")

		err = ValidateValue("black", "required,hexcolor")
		assert.Equal(t, "hexcolor", err.(Violation).Tag)

		err = ValidateValue(math.NaN(), "finite")
		assert.Equal(t, "finite", err.(Violation).Tag)

		err = ValidateValue(math.Inf(1), "finite")
		assert.Equal(t, "finite", err.(Violation).Tag)

		err = ValidateValue(12.5, "finite")
		assert.Nil(t, err)
	})

	t.Run("rgbhex test", func(t *testing.T) {
		for _, color := range []string{"#000", "#1a2B3c", "#ff000080"} {
			assert.Nil(t, ValidateValue(color, "required,rgbhex"), color)
		}

		for _, color := range []string{"#f00f", "f00", "#12345", "#gggggg", "red"} {
			err := ValidateValue(color, "required,rgbhex")
			assert.Equal(t, "rgbhex", err.(Violation).Tag, color)
		}

		err := ValidateValue("#f00f", "rgbhex")
		assert.Contains(t, err.(Violation).Description, "must be a #rgb, #rrggbb or #rrggbbaa color")
	})

	t.Run("ValidateStruct test", func(t *testing.T) {
		type Stroke struct {
			Color string  `validate:"required,rgbhex"`
			Width float64 `validate:"finite,gt=0"`
		}

		err := ValidateStruct(Stroke{Color: "red", Width: 0})
		structError := err.(*StructError)
		assert.Len(t, structError.Violations, 2, "stroke should be invalid")
		assert.Equal(t, "Color", structError.Violations[0].Field)
		assert.Equal(t, "Width", structError.Violations[1].Field)

		assert.NoError(t, ValidateStruct(Stroke{Color: "#fff", Width: 3}))
	})

	t.Run("translated description test", func(t *testing.T) {
		err := ValidateValue(math.NaN(), "finite")
		assert.Contains(t, err.(Violation).Description, "must be a finite number")
	})
}
