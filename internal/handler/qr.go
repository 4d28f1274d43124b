package handler

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html/template"
	"image/png"
	"net/http"
	"time"

	"fedauth/pkg/logger"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

const qrImageSize = 400

// QRHandler renders the registration QR code page. Scanning the code gives
// the mobile app everything it needs to call /api/register against this
// server.
type QRHandler struct {
	logger logger.Logger
}

// NewQRHandler creates a QRHandler.
func NewQRHandler(log logger.Logger) *QRHandler {
	return &QRHandler{logger: log}
}

// registrationPayload is the JSON encoded into the QR code.
type registrationPayload struct {
	Action    string `json:"action"`
	Token     string `json:"token"`
	UserID    string `json:"userId"`
	AccountID string `json:"accountId"`
	Endpoint  string `json:"endpoint"`
	AppName   string `json:"appName"`
}

// QRPage serves the QR generator page with the code embedded as a PNG data
// URL, so the page needs no separate image endpoint.
func (h *QRHandler) QRPage(w http.ResponseWriter, r *http.Request) {
	payload := registrationPayload{
		Action:    "register",
		Token:     fmt.Sprintf("demo_token_%d", time.Now().UnixMilli()),
		UserID:    "demo_user",
		AccountID: "demo_account",
		Endpoint:  baseURL(r) + "/api",
		AppName:   "Demo App",
	}

	payloadJSON, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		respondError(w, http.StatusInternalServerError, "QR generation failed")
		return
	}

	dataURL, err := qrDataURL(string(mustCompact(payloadJSON)))
	if err != nil {
		h.logger.Error("QR encode failed", map[string]interface{}{"error": err.Error()})
		respondError(w, http.StatusInternalServerError, "QR generation failed")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = qrPageTemplate.Execute(w, map[string]interface{}{
		"QRDataURL":   template.URL(dataURL),
		"PayloadJSON": string(payloadJSON),
	})
	if err != nil {
		h.logger.Error("QR page render failed", map[string]interface{}{"error": err.Error()})
	}
}

// qrDataURL encodes data into a medium-error-correction QR PNG and returns
// it as a base64 data URL.
func qrDataURL(data string) (string, error) {
	code, err := qr.Encode(data, qr.M, qr.Auto)
	if err != nil {
		return "", err
	}
	code, err = barcode.Scale(code, qrImageSize, qrImageSize)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, code); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func mustCompact(indented []byte) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, indented); err != nil {
		return indented
	}
	return buf.Bytes()
}

func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

var qrPageTemplate = template.Must(template.New("qr").Parse(`<!DOCTYPE html>
<html>
<head>
  <title>FedHR Auth - QR Code Generator</title>
  <style>
    body { font-family: Arial, sans-serif; max-width: 800px; margin: 50px auto; padding: 20px; text-align: center; }
    h1 { color: #333; }
    .qr-container { margin: 30px 0; padding: 30px; background: #f9f9f9; border-radius: 10px; display: inline-block; }
    .qr-image { border: 10px solid white; box-shadow: 0 4px 8px rgba(0,0,0,0.1); border-radius: 10px; }
    .json-data { text-align: left; background: #f4f4f4; padding: 20px; border-radius: 5px; margin: 20px 0; overflow-x: auto; }
    pre { margin: 0; font-size: 14px; }
    .button { display: inline-block; padding: 12px 24px; background: #4CAF50; color: white; text-decoration: none; border-radius: 5px; margin: 10px 5px; font-weight: bold; }
    .button:hover { background: #45a049; }
    .instructions { text-align: left; background: #e3f2fd; padding: 20px; border-radius: 5px; margin: 20px 0; }
    .instructions ol { margin: 10px 0; padding-left: 20px; }
    .instructions li { margin: 8px 0; }
  </style>
</head>
<body>
  <h1>📱 FedHR Authenticator - Demo QR Code</h1>

  <div class="qr-container">
    <img src="{{.QRDataURL}}" alt="Registration QR Code" class="qr-image">
  </div>

  <div class="instructions">
    <h3>📋 How to Test:</h3>
    <ol>
      <li>Open the <strong>FedHR Authenticator</strong> app on your mobile device</li>
      <li>Tap <strong>"Scan QR Code"</strong></li>
      <li>Point your camera at the QR code above</li>
      <li>The app will register with this demo server</li>
      <li>Wait 30 seconds and a demo auth request will appear</li>
      <li>Tap <strong>Approve</strong> or <strong>Deny</strong> to test the flow</li>
    </ol>
  </div>

  <h3>📄 QR Code Data:</h3>
  <div class="json-data">
    <pre>{{.PayloadJSON}}</pre>
  </div>

  <div>
    <a href="/" class="button">← Back to Home</a>
    <a href="/qr" class="button">🔄 Generate New QR Code</a>
  </div>
</body>
</html>
`))
