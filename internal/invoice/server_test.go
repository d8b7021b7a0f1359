package invoice

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func multipartUpload(filename string, data []byte, sender string) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	Expect(err).NotTo(HaveOccurred())
	_, err = part.Write(data)
	Expect(err).NotTo(HaveOccurred())
	if sender != "" {
		Expect(writer.WriteField("sender", sender)).To(Succeed())
	}
	Expect(writer.Close()).To(Succeed())
	return body, writer.FormDataContentType()
}

var _ = Describe("Server", func() {
	var (
		extractor *mockExtractor
		sink      *mockSink
		server    *Server
		auth      BasicAuth

		resp *httptest.ResponseRecorder
		req  *http.Request
	)

	BeforeEach(func() {
		extractor = &mockExtractor{
			pages: []string{"1 Washing service (17.12.2025) 28,2 кг 70,00 1974,00\n"},
		}
		sink = newMockSink()
		auth = BasicAuth{}
	})

	JustBeforeEach(func() {
		service := NewService(extractor, sink, nil, CaptureItems)
		server = NewServerWithMux(service, auth, http.NewServeMux())
		resp = httptest.NewRecorder()
		server.ServeHTTP(resp, req)
	})

	Describe("GET /healthz", func() {
		BeforeEach(func() {
			req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
		})

		It("should report ok", func() {
			Expect(resp.Code).To(Equal(http.StatusOK))
			Expect(resp.Body.String()).To(ContainSubstring(`"status":"ok"`))
		})
	})

	Describe("POST /api/documents", func() {
		When("uploading a valid PDF", func() {
			BeforeEach(func() {
				body, contentType := multipartUpload("invoice.pdf", []byte("%PDF-1.4 payload"), "tester")
				req = httptest.NewRequest(http.MethodPost, "/api/documents", body)
				req.Header.Set("Content-Type", contentType)
			})

			It("should respond created with the report", func() {
				Expect(resp.Code).To(Equal(http.StatusCreated))

				var out uploadResponse
				Expect(json.NewDecoder(resp.Body).Decode(&out)).To(Succeed())
				Expect(out.Added).To(Equal(1))
				Expect(out.Duplicates).To(Equal(0))
				Expect(out.Error).To(BeEmpty())
			})

			It("should append the row to the sink", func() {
				Expect(sink.rows).To(HaveLen(1))
			})
		})

		When("uploading a non-PDF payload", func() {
			BeforeEach(func() {
				body, contentType := multipartUpload("notes.txt", []byte("plain text"), "")
				req = httptest.NewRequest(http.MethodPost, "/api/documents", body)
				req.Header.Set("Content-Type", contentType)
			})

			It("should reject the request", func() {
				Expect(resp.Code).To(Equal(http.StatusBadRequest))
				Expect(resp.Body.String()).To(ContainSubstring("not a PDF document"))
				Expect(sink.rows).To(BeEmpty())
			})
		})

		When("no file is attached", func() {
			BeforeEach(func() {
				body := &bytes.Buffer{}
				writer := multipart.NewWriter(body)
				Expect(writer.Close()).To(Succeed())
				req = httptest.NewRequest(http.MethodPost, "/api/documents", body)
				req.Header.Set("Content-Type", writer.FormDataContentType())
			})

			It("should reject the request", func() {
				Expect(resp.Code).To(Equal(http.StatusBadRequest))
			})
		})

		When("basic auth is configured", func() {
			BeforeEach(func() {
				auth = BasicAuth{Username: "user", Password: "pass"}
				body, contentType := multipartUpload("invoice.pdf", []byte("%PDF-1.4 payload"), "")
				req = httptest.NewRequest(http.MethodPost, "/api/documents", body)
				req.Header.Set("Content-Type", contentType)
			})

			It("should reject requests without credentials", func() {
				Expect(resp.Code).To(Equal(http.StatusUnauthorized))
			})
		})

		When("basic auth credentials are supplied", func() {
			BeforeEach(func() {
				auth = BasicAuth{Username: "user", Password: "pass"}
				body, contentType := multipartUpload("invoice.pdf", []byte("%PDF-1.4 payload"), "")
				req = httptest.NewRequest(http.MethodPost, "/api/documents", body)
				req.Header.Set("Content-Type", contentType)
				req.SetBasicAuth("user", "pass")
			})

			It("should accept the request", func() {
				Expect(resp.Code).To(Equal(http.StatusCreated))
			})
		})
	})
})

var _ = Describe("sanitizeFilename", func() {
	It("should strip special characters", func() {
		Expect(sanitizeFilename("инвойс #42!.pdf")).To(Equal("42.pdf"))
	})

	It("should collapse whitespace", func() {
		Expect(sanitizeFilename("laundry   invoice  dec.pdf")).To(Equal("laundry invoice dec.pdf"))
	})

	It("should fall back to a default name", func() {
		Expect(sanitizeFilename("###.pdf")).To(Equal("document.pdf"))
	})
})

var _ = Describe("uploadResponse", func() {
	It("should omit the error field on success", func() {
		out, err := json.Marshal(uploadResponse{Outcome: Outcome{Added: 2, Duplicates: 1}})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(out)).NotTo(ContainSubstring("error"))
	})
})

var _ = Describe("LocalArchive", func() {
	It("should write documents under the base path", func() {
		archive, err := NewLocalArchive(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())

		name, err := archive.Save("invoice.pdf", []byte("%PDF-1.4"))
		Expect(err).NotTo(HaveOccurred())
		Expect(name).To(Equal("invoice.pdf"))
	})
})
