package httpapi

import (
	"net/http"

	"github.com/ufukayyildiz/tocwtr2b/internal/httputil"
)

// apiNotFound answers any unmatched path inside the API namespace with a
// JSON body naming the requested path.
func (h *Handler) apiNotFound(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusNotFound, map[string]string{
		"error": "Not Found",
		"path":  r.URL.Path,
	})
}

// spaFallback serves the root document for every non-API path so a
// client-side router can take over.
func (h *Handler) spaFallback(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(spaDocument))
}

const spaDocument = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>TR2B Application</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 0; padding: 20px; background: #f5f5f5; }
        .container { max-width: 800px; margin: 0 auto; background: white; padding: 40px; border-radius: 8px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); }
        .header { text-align: center; margin-bottom: 30px; }
        .status { padding: 20px; border-radius: 8px; margin: 20px 0; background: #d4edda; color: #155724; border: 1px solid #c3e6cb; }
        .endpoint { background: #f8f9fa; padding: 15px; margin: 10px 0; border-radius: 4px; border-left: 4px solid #007bff; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>TR2B Application</h1>
            <p>Template React To Backend</p>
        </div>
        <div class="status">
            <h2>Server running</h2>
            <p>The TR2B backend is up and serving the JSON API below.</p>
        </div>
        <div>
            <h3>API Endpoints:</h3>
            <div class="endpoint"><strong>GET /api/health</strong> - Health check</div>
            <div class="endpoint"><strong>GET /api/env</strong> - Environment information</div>
            <div class="endpoint"><strong>GET /api/data</strong> - Demo data</div>
            <div class="endpoint"><strong>GET /api/session</strong> - Session lookup</div>
            <div class="endpoint"><strong>GET /api/users</strong> - User management</div>
        </div>
    </div>
    <script>
        fetch('/api/env')
            .then(function (response) { return response.json(); })
            .then(function (data) { console.log('Environment:', data); })
            .catch(function (error) { console.error('API Error:', error); });
    </script>
</body>
</html>
`
