package environment

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// envSpecialChars are the characters that change a .env value's meaning
// when it is written bare.
const envSpecialChars = " \t#\"'$\\\n\r`!"

// EnvFileMode keeps the generated secret readable by the owner only.
const EnvFileMode = 0o600

// EnvFile renders the .env file that accompanies the manifest.
func EnvFile(ctx Context) []byte {
	f := ctx.Facts
	var b strings.Builder

	b.WriteString("# Environment for docker compose, generated by mediastack")
	if !f.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, " on %s", f.GeneratedAt.UTC().Format(time.RFC3339))
	}
	b.WriteString("\n# Keep this file private: it may contain secrets.\n")

	line := func(key, value string) {
		b.WriteString(envLine(key, value))
		b.WriteByte('\n')
	}
	line(KeyPUID, strconv.Itoa(f.UID))
	line(KeyPGID, strconv.Itoa(f.GID))
	line(KeyTZ, f.Timezone)
	line("DOCKER_DIR", f.DockerDir)
	line("MEDIA_DIR", f.MediaDir)
	line("HOST_IP", f.HostIP)
	line("COMPOSE_PROJECT_NAME", f.ProjectName)
	if ctx.EncryptionKey != "" {
		line(KeyEncryptionKey, ctx.EncryptionKey)
	}

	b.WriteString("\n# Uncomment and modify these if needed:\n")
	fmt.Fprintf(&b, "# DOCKER_SUBNET=%s\n", f.Subnet)
	b.WriteString("# PLEX_CLAIM=claim-xxxxxxxxxx\n")
	return []byte(b.String())
}

// envLine writes plain values bare and double-quotes the rest with
// godotenv's escaping, so both docker compose and godotenv read them back
// unchanged.
func envLine(key, value string) string {
	if !strings.ContainsAny(value, envSpecialChars) {
		return key + "=" + value
	}
	quoted, err := godotenv.Marshal(map[string]string{key: value})
	if err != nil {
		return key + "=" + strconv.Quote(value)
	}
	return quoted
}
