package handler

import (
	"html/template"
	"net/http"

	"fedauth/internal/authreq"
	"fedauth/internal/device"
	"fedauth/pkg/logger"
)

// PagesHandler serves the human-facing HTML: the API documentation home
// page and the manual test-trigger page. Both consume the registry and the
// store through read operations only.
type PagesHandler struct {
	registry *device.Registry
	store    *authreq.Store
	logger   logger.Logger
}

// NewPagesHandler creates a PagesHandler.
func NewPagesHandler(registry *device.Registry, store *authreq.Store, log logger.Logger) *PagesHandler {
	return &PagesHandler{registry: registry, store: store, logger: log}
}

// Home serves the API documentation page.
func (h *PagesHandler) Home(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := homeTemplate.Execute(w, map[string]interface{}{
		"BaseURL":        baseURL(r),
		"Devices":        h.registry.Len(),
		"ActiveRequests": h.store.Len(),
	})
	if err != nil {
		h.logger.Error("Home page render failed", map[string]interface{}{"error": err.Error()})
	}
}

// TestPage serves the manual trigger page listing registered devices.
func (h *PagesHandler) TestPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := testTemplate.Execute(w, map[string]interface{}{
		"Devices": h.registry.All(),
	})
	if err != nil {
		h.logger.Error("Test page render failed", map[string]interface{}{"error": err.Error()})
	}
}

var homeTemplate = template.Must(template.New("home").Parse(`<!DOCTYPE html>
<html>
<head>
  <title>FedHR Auth Demo Backend</title>
  <style>
    body { font-family: Arial, sans-serif; max-width: 800px; margin: 50px auto; padding: 20px; }
    h1 { color: #333; }
    code { background: #f4f4f4; padding: 2px 6px; border-radius: 3px; }
    pre { background: #f4f4f4; padding: 15px; border-radius: 5px; overflow-x: auto; }
    .endpoint { margin: 20px 0; padding: 15px; border-left: 4px solid #4CAF50; background: #f9f9f9; }
    .method { display: inline-block; padding: 4px 8px; border-radius: 3px; font-weight: bold; color: white; margin-right: 10px; }
    .post { background: #4CAF50; }
    .get { background: #2196F3; }
  </style>
</head>
<body>
  <h1>FedHR Auth Demo Backend</h1>
  <p>This is a demo backend for testing the FedHR Authenticator mobile app.</p>

  <h2>API Endpoints</h2>

  <div class="endpoint">
    <span class="method post">POST</span>
    <strong>/api/register</strong>
    <p>Register a new device</p>
    <pre>{
  "deviceId": "unique-device-id",
  "userId": "user-id",
  "accountId": "account-id",
  "appName": "Demo App",
  "publicKey": "base64-encoded-public-key"
}</pre>
  </div>

  <div class="endpoint">
    <span class="method get">GET</span>
    <strong>/api/poll/{deviceId}</strong>
    <p>Poll for pending auth requests. Auto-generates demo requests every 30 seconds.</p>
  </div>

  <div class="endpoint">
    <span class="method post">POST</span>
    <strong>/api/respond</strong>
    <p>Respond to an auth request (approve/deny)</p>
    <pre>{
  "requestId": "request-id",
  "deviceId": "device-id",
  "response": "approved",
  "signature": "base64-signature",
  "timestamp": 1234567890
}</pre>
  </div>

  <h2>Admin Endpoints</h2>
  <div class="endpoint">
    <span class="method get">GET</span>
    <strong>/api/admin/devices</strong>
    <p>View all registered devices</p>
  </div>

  <div class="endpoint">
    <span class="method get">GET</span>
    <strong>/api/admin/requests</strong>
    <p>View all auth requests</p>
  </div>

  <h2>QR Code Registration</h2>
  <p>To test with the mobile app, scan a QR code with this format:</p>
  <pre>{
  "action": "register",
  "token": "demo_token_12345",
  "userId": "demo_user",
  "accountId": "demo_account",
  "endpoint": "{{.BaseURL}}/api",
  "appName": "Demo App"
}</pre>

  <p><a href="/qr">Generate QR Code →</a></p>

  <h2>Status</h2>
  <p>
    <strong>Registered Devices:</strong> {{.Devices}}<br>
    <strong>Active Requests:</strong> {{.ActiveRequests}}
  </p>
</body>
</html>
`))

var testTemplate = template.Must(template.New("test").Parse(`<!DOCTYPE html>
<html>
<head>
  <title>FedHR Auth - Test Trigger</title>
  <style>
    body { font-family: Arial, sans-serif; max-width: 1000px; margin: 50px auto; padding: 20px; }
    h1 { color: #333; }
    .device-card { background: #f9f9f9; border-radius: 8px; padding: 20px; margin: 15px 0; border: 1px solid #ddd; }
    .device-name { font-size: 18px; font-weight: bold; color: #333; }
    .device-id { font-size: 12px; color: #666; font-family: monospace; background: #fff; padding: 4px 8px; border-radius: 4px; }
    .device-info { font-size: 14px; color: #666; margin: 5px 0; }
    .button { display: inline-block; padding: 10px 20px; background: #007AFF; color: white; text-decoration: none; border-radius: 5px; border: none; cursor: pointer; font-size: 14px; margin: 5px 5px 5px 0; }
    .button:hover { background: #0051D5; }
    .empty { text-align: center; padding: 40px; color: #999; }
    .info-box { background: #e3f2fd; padding: 15px; border-radius: 5px; margin: 20px 0; }
    #event-log { background: #1e1e1e; color: #9ee59e; font-family: monospace; font-size: 12px; padding: 15px; border-radius: 5px; max-height: 200px; overflow-y: auto; }
  </style>
</head>
<body>
  <h1>📱 FedHR Auth - Test Trigger</h1>

  <div class="info-box">
    <strong>Instructions:</strong>
    <ol>
      <li>Registered devices appear below</li>
      <li>Click "Send Auth Request" to trigger an authentication request</li>
      <li>The mobile app will receive the request within 5 seconds</li>
      <li>Tap Approve or Deny in the app to test the flow</li>
    </ol>
  </div>

  <h2>Registered Devices ({{len .Devices}})</h2>

  {{if not .Devices}}
  <div class="empty">
    <p>No devices registered yet.</p>
    <p>Scan the QR code from <a href="/qr">/qr</a> to register a device.</p>
  </div>
  {{end}}
  {{range .Devices}}
  <div class="device-card">
    <div>
      <div class="device-name">{{.AppName}}</div>
      <div class="device-info">User: {{.UserID}} | Account: {{.AccountID}}</div>
      <div class="device-id">{{.DeviceID}}</div>
    </div>
    <div>
      <button class="button" onclick="sendAuthRequest('{{.DeviceID}}', 'login')">🔐 Send Login Request</button>
      <button class="button" onclick="sendAuthRequest('{{.DeviceID}}', 'approve_transaction')">💰 Send Transaction Request</button>
      <button class="button" onclick="sendAuthRequest('{{.DeviceID}}', 'verify_identity')">✅ Send Verify Request</button>
    </div>
  </div>
  {{end}}

  <h2>Live Events</h2>
  <div id="event-log">waiting for events…</div>

  <div style="margin-top: 40px;">
    <a href="/qr" class="button">📱 Generate QR Code</a>
    <a href="/api/admin/devices" class="button">👥 View All Devices</a>
    <a href="/api/admin/requests" class="button">📋 View All Requests</a>
  </div>

  <script>
    async function sendAuthRequest(deviceId, action) {
      try {
        const response = await fetch('/api/test/trigger', {
          method: 'POST',
          headers: { 'Content-Type': 'application/json' },
          body: JSON.stringify({ deviceId, action })
        });
        const result = await response.json();
        if (result.success) {
          alert('✅ Auth request sent!\n\nRequest ID: ' + result.requestId + '\nAction: ' + action + '\n\nCheck your mobile app in ~5 seconds.');
        } else {
          alert('❌ Error: ' + result.error);
        }
      } catch (error) {
        alert('❌ Error: ' + error.message);
      }
    }

    (function connectEvents() {
      const proto = location.protocol === 'https:' ? 'wss:' : 'ws:';
      const socket = new WebSocket(proto + '//' + location.host + '/ws/events');
      const log = document.getElementById('event-log');
      socket.onmessage = function (msg) {
        const event = JSON.parse(msg.data);
        const line = document.createElement('div');
        line.textContent = event.timestamp + '  ' + event.type + '  ' + JSON.stringify(event.payload);
        log.prepend(line);
      };
      socket.onclose = function () { setTimeout(connectEvents, 3000); };
    })();
  </script>
</body>
</html>
`))
