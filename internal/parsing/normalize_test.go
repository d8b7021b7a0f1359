package parsing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("NormalizeNumber", func() {
	It("should convert a decimal comma to a period", func() {
		Expect(NormalizeNumber("28,2")).To(Equal("28.2"))
	})

	It("should strip period thousands separators", func() {
		Expect(NormalizeNumber("1.974,00")).To(Equal("1974.00"))
	})

	It("should leave period decimals alone", func() {
		Expect(NormalizeNumber("70.00")).To(Equal("70.00"))
	})

	It("should leave plain integers alone", func() {
		Expect(NormalizeNumber("1974")).To(Equal("1974"))
	})

	It("should pass malformed strings through without failing", func() {
		Expect(NormalizeNumber("n/a")).To(Equal("n/a"))
	})
})

var _ = Describe("NormalizeRow", func() {
	var (
		input Row
		out   Row
	)

	JustBeforeEach(func() {
		out = NormalizeRow(input)
	})

	When("normalizing the reference line item", func() {
		BeforeEach(func() {
			input = Row{
				Date:        "17.12.2025",
				Description: " Washing service ",
				Quantity:    "28,2",
				Unit:        " кг ",
				UnitPrice:   "70,00",
				Total:       "1974,00",
			}
		})

		It("should canonicalize the numeric fields", func() {
			Expect(out.Quantity).To(Equal("28.2"))
			Expect(out.UnitPrice).To(Equal("70.00"))
			Expect(out.Total).To(Equal("1974.00"))
		})

		It("should trim description and unit", func() {
			Expect(out.Description).To(Equal("Washing service"))
			Expect(out.Unit).To(Equal("кг"))
		})

		It("should pass the date through unmodified", func() {
			Expect(out.Date).To(Equal("17.12.2025"))
		})
	})

	When("the date string is malformed", func() {
		BeforeEach(func() {
			input = Row{Date: "99.99.9999", Total: "10"}
		})

		It("should preserve it as-is rather than reject the row", func() {
			Expect(out.Date).To(Equal("99.99.9999"))
		})
	})
})
