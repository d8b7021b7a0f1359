package parsing

import (
	"slices"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("CandidateLines", func() {
	var (
		pages   []string
		markers []string
		lines   []CandidateLine
	)

	BeforeEach(func() {
		markers = nil
	})

	JustBeforeEach(func() {
		lines = slices.Collect(CandidateLines(pages, markers))
	})

	When("pages contain blank and summary lines", func() {
		BeforeEach(func() {
			pages = []string{
				"Накладная №42\n\n1 Стирка 28,2 кг 70,00 1974,00\n   \nИтого: 1974,00\n",
				"2 Глажка 4 шт 50,00 200,00\nTotal due 2174,00\n",
			}
		})

		It("should drop blank lines", func() {
			for _, l := range lines {
				Expect(l.Text).NotTo(BeEmpty())
			}
		})

		It("should drop summary lines on any page", func() {
			Expect(lines).To(HaveLen(3))
			Expect(lines[0].Text).To(Equal("Накладная №42"))
			Expect(lines[1].Text).To(Equal("1 Стирка 28,2 кг 70,00 1974,00"))
			Expect(lines[2].Text).To(Equal("2 Глажка 4 шт 50,00 200,00"))
		})

		It("should record page and line positions", func() {
			Expect(lines[1].Page).To(Equal(1))
			Expect(lines[1].Line).To(Equal(3))
			Expect(lines[2].Page).To(Equal(2))
			Expect(lines[2].Line).To(Equal(1))
		})
	})

	When("a summary marker appears in mixed case", func() {
		BeforeEach(func() {
			pages = []string{"1 Valid line 10 20\nGrand TOTAL 2174,00\nИТОГО 2174,00\n"}
		})

		It("should still exclude those lines", func() {
			Expect(lines).To(HaveLen(1))
			Expect(lines[0].Text).To(Equal("1 Valid line 10 20"))
		})
	})

	When("custom markers are supplied", func() {
		BeforeEach(func() {
			pages = []string{"1 item 10 20\nSumme 30\n"}
			markers = []string{"summe"}
		})

		It("should use them instead of the defaults", func() {
			Expect(lines).To(HaveLen(1))
		})
	})

	When("there are no pages", func() {
		BeforeEach(func() {
			pages = nil
		})

		It("should yield nothing", func() {
			Expect(lines).To(BeEmpty())
		})
	})

	It("should stop early when the consumer breaks", func() {
		pages = []string{"a b c\nd e f\ng h i\n"}
		count := 0
		for range CandidateLines(pages, nil) {
			count++
			break
		}
		Expect(count).To(Equal(1))
	})
})
