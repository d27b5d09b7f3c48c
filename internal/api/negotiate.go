package api

import (
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

const msgNotAcceptable = "Client must accept application/json data."

// acceptsJSON reports whether an Accept header admits application/json.
// A missing header accepts anything. Ranges with q=0 are refusals.
func acceptsJSON(header string) bool {
	if strings.TrimSpace(header) == "" {
		return true
	}

	for part := range strings.SplitSeq(header, ",") {
		mediaType, params, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		if q, ok := params["q"]; ok {
			weight, err := strconv.ParseFloat(q, 64)
			if err != nil || weight <= 0 {
				continue
			}
		}
		switch mediaType {
		case "application/json", "application/*", "*/*":
			return true
		}
	}
	return false
}

// requireJSON is a huma operation middleware answering 406 when the client
// cannot take a JSON body. It runs after requireSubject so 401 wins.
func (s *Server) requireJSON(ctx huma.Context, next func(huma.Context)) {
	if !acceptsJSON(ctx.Header("Accept")) {
		_ = huma.WriteErr(s.api, ctx, http.StatusNotAcceptable, msgNotAcceptable)
		return
	}
	next(ctx)
}
