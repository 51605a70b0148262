// Package opstest runs an in-process stand-in for the registrar XCP API and
// the mail-admin JSON API.
//
// The registrar endpoint checks X-Username, Content-Length and X-Signature
// exactly as the real service does, decodes the request envelope and answers
// with a canned reply. Every accepted request is recorded for inspection.
//
//	srv := opstest.NewServer("reseller", "key")
//	defer srv.Close()
//	srv.Handle("DOMAIN", "LOOKUP", func(r *opstest.Request) *opstest.Reply {
//	    return opstest.OK(value.NewAssoc(value.P("status", value.Scalar("available"))))
//	})
package opstest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirosfoundation/go-opensrs/pkg/codec"
	"github.com/sirosfoundation/go-opensrs/pkg/signing"
	"github.com/sirosfoundation/go-opensrs/pkg/value"
)

// Paths served
const (
	RegistrarPath = "/"
	MailPrefix    = "/mail"
)

// Request is a registrar request that passed authentication.
type Request struct {
	Object     string
	Action     string
	Attributes *value.Assoc
	Header     http.Header
	Body       []byte
}

// Reply describes the answer to a registrar request. When Raw is set it is
// written verbatim instead of an encoded envelope.
type Reply struct {
	Status     int
	Success    bool
	Code       int
	Text       string
	Attributes value.Value
	Raw        []byte
}

// OK is a successful reply carrying attributes.
func OK(attributes value.Value) *Reply {
	return &Reply{Success: true, Code: 200, Text: "Command successful", Attributes: attributes}
}

// Fail is a business-level failure reply.
func Fail(code int, text string) *Reply {
	return &Reply{Success: false, Code: code, Text: text}
}

// Handler produces the reply to one registrar request.
type Handler func(r *Request) *Reply

// MailHandler produces the JSON answer to one mail-admin call. The request
// is the decoded JSON body including credentials.
type MailHandler func(method string, req map[string]any) (int, map[string]any)

// MailCall is a recorded mail-admin call.
type MailCall struct {
	Method string
	Body   map[string]any
}

// Server is the fake API.
type Server struct {
	*httptest.Server

	username string
	apiKey   string

	mu        sync.Mutex
	handlers  map[string]Handler
	mail      map[string]MailHandler
	requests  []*Request
	mailCalls []MailCall
	rejected  int
}

// NewServer starts a fake API accepting requests signed with apiKey by
// username.
func NewServer(username, apiKey string) *Server {
	s := &Server{
		username: username,
		apiKey:   apiKey,
		handlers: make(map[string]Handler),
		mail:     make(map[string]MailHandler),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post(RegistrarPath, s.handleRegistrar)
	r.Post(MailPrefix+"/{method}", s.handleMail)

	s.Server = httptest.NewServer(r)
	return s
}

// RegistrarURL is the XCP endpoint of the fake.
func (s *Server) RegistrarURL() string {
	return s.URL + RegistrarPath
}

// MailURL is the mail-admin base URL of the fake.
func (s *Server) MailURL() string {
	return s.URL + MailPrefix
}

// Handle installs the handler for object/action.
func (s *Server) Handle(object, action string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[object+" "+action] = h
}

// HandleMail installs the handler for a mail-admin method.
func (s *Server) HandleMail(method string, h MailHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mail[method] = h
}

// Requests returns the accepted registrar requests in arrival order.
func (s *Server) Requests() []*Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Request(nil), s.requests...)
}

// LastRequest returns the most recent accepted registrar request, or nil.
func (s *Server) LastRequest() *Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return nil
	}
	return s.requests[len(s.requests)-1]
}

// Rejected returns how many registrar requests failed authentication.
func (s *Server) Rejected() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rejected
}

// MailCalls returns the recorded mail-admin calls.
func (s *Server) MailCalls() []MailCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]MailCall(nil), s.mailCalls...)
}

func (s *Server) reject(w http.ResponseWriter, status int, msg string) {
	s.mu.Lock()
	s.rejected++
	s.mu.Unlock()
	http.Error(w, msg, status)
}

func (s *Server) handleRegistrar(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	if ct := r.Header.Get("Content-Type"); ct != "text/xml" {
		s.reject(w, http.StatusUnsupportedMediaType, fmt.Sprintf("unexpected content type %q", ct))
		return
	}
	if r.Header.Get("X-Username") != s.username {
		s.reject(w, http.StatusUnauthorized, "unknown user")
		return
	}
	if r.ContentLength != int64(len(body)) {
		s.reject(w, http.StatusBadRequest, "content length mismatch")
		return
	}
	if !signing.Verify(body, s.apiKey, r.Header.Get("X-Signature")) {
		s.reject(w, http.StatusUnauthorized, "authentication failed")
		return
	}

	raw, err := codec.Decode(body)
	if err != nil {
		s.reject(w, http.StatusBadRequest, err.Error())
		return
	}
	data, _ := raw.(*value.Assoc)
	attrs, _ := value.Path(raw, "attributes")
	attrAssoc, _ := attrs.(*value.Assoc)

	req := &Request{
		Object:     data.Text("object"),
		Action:     data.Text("action"),
		Attributes: attrAssoc,
		Header:     r.Header.Clone(),
		Body:       body,
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	h := s.handlers[req.Object+" "+req.Action]
	s.mu.Unlock()

	reply := OK(nil)
	if h != nil {
		reply = h(req)
	}
	s.writeReply(w, req, reply)
}

func (s *Server) writeReply(w http.ResponseWriter, req *Request, reply *Reply) {
	status := reply.Status
	if status == 0 {
		status = http.StatusOK
	}

	out := reply.Raw
	if out == nil {
		success := "0"
		if reply.Success {
			success = "1"
		}
		data := value.NewAssoc(
			value.P("protocol", value.Scalar(codec.Protocol)),
			value.P("action", value.Scalar("REPLY")),
			value.P("object", value.Scalar(req.Object)),
			value.P("is_success", value.Scalar(success)),
			value.P("response_code", value.Scalar(strconv.Itoa(reply.Code))),
			value.P("response_text", value.Scalar(reply.Text)),
		)
		if reply.Attributes != nil {
			data.Set("attributes", reply.Attributes)
		}

		var err error
		out, err = codec.EncodeEnvelope(data)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(status)
	w.Write(out)
}

func (s *Server) handleMail(w http.ResponseWriter, r *http.Request) {
	method := chi.URLParam(r, "method")

	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.mailCalls = append(s.mailCalls, MailCall{Method: method, Body: body})
	h := s.mail[method]
	s.mu.Unlock()

	status, resp := http.StatusOK, map[string]any{"success": true}
	if h != nil {
		status, resp = h(method, body)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
