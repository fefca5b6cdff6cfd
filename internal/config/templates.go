package config

import (
	"fmt"
	"os"
)

// Template returns the annotated example config.
func Template() string {
	return gatewayTemplate
}

func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config: already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(gatewayTemplate), 0o600)
}

const gatewayTemplate = `# token may also come from GATEWAYCTL_TOKEN or a .env file
token = ""
intents = 513
api_base = "https://discord.com/api/v10"
# gateway_url = "wss://gateway.discord.gg"
metrics_addr = "127.0.0.1:9464"
events = ["READY", "RESUMED", "MESSAGE_CREATE", "GUILD_CREATE"]
connect_timeout = "10s"
write_timeout = "10s"
max_reconnect_attempts = 0

[properties]
os = "linux"
browser = "gatewayctl"
device = "gatewayctl"

[backoff]
initial = "250ms"
multiplier = 2.0
max = "30s"
jitter = true

[transport]
security_mode = "production"
read_limit = 8388608

[voice]
# guild_id = ""
# channel_id = ""
`
