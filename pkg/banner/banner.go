package banner

import (
	"fmt"

	"noticeboard/pkg/config"
)

const banner = `
███╗   ██╗ ██████╗ ████████╗██╗ ██████╗███████╗██████╗  ██████╗  █████╗ ██████╗ ██████╗
████╗  ██║██╔═══██╗╚══██╔══╝██║██╔════╝██╔════╝██╔══██╗██╔═══██╗██╔══██╗██╔══██╗██╔══██╗
██╔██╗ ██║██║   ██║   ██║   ██║██║     █████╗  ██████╔╝██║   ██║███████║██████╔╝██║  ██║
██║╚██╗██║██║   ██║   ██║   ██║██║     ██╔══╝  ██╔══██╗██║   ██║██╔══██║██╔══██╗██║  ██║
██║ ╚████║╚██████╔╝   ██║   ██║╚██████╗███████╗██████╔╝╚██████╔╝██║  ██║██║  ██║██████╔╝
╚═╝  ╚═══╝ ╚═════╝    ╚═╝   ╚═╝ ╚═════╝╚══════╝╚═════╝  ╚═════╝ ╚═╝  ╚═╝╚═╝  ╚═╝╚═════╝
`

// Print renders the startup banner with the effective runtime config so a
// glance at the console answers what is listening where, backed by what.
func Print(eff config.Effective, version string) {
	addr := eff.Addr
	if addr == "" && eff.Config != nil {
		addr = eff.Config.Addr()
	}

	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s\n", addr)
	fmt.Printf("DB Path:  %s\n", eff.DBPath)
	if eff.Config != nil {
		fmt.Printf("Uploads:  %s\n", eff.Config.Uploads.Dir)
	}
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	fmt.Printf("Config:   %s\n", eff.Source)

	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("POST /v1/login                - admin login, returns bearer token")
	fmt.Println("GET  /v1/messages             - ordered message history")
	fmt.Println("POST /v1/messages             - create message (admin; JSON or multipart)")
	fmt.Println("GET  /v1/polls                - list polls")
	fmt.Println("POST /v1/polls/{id}/vote      - cast a vote")
	fmt.Println("GET  /v1/live                 - websocket event stream")

	fmt.Println("\n== Production? =================================================")
	if eff.Config != nil {
		if len(eff.Config.Auth.Admins) > 0 {
			fmt.Printf("- Admin accounts: OK (%d)\n", len(eff.Config.Auth.Admins))
		} else {
			fmt.Println("- Admin accounts: MISSING (board is read-only without them)")
		}
		if eff.Config.Auth.JWTSecret != "" {
			fmt.Println("- JWT secret: configured")
		} else {
			fmt.Println("- JWT secret: MISSING (set auth.jwt_secret or NOTICEBOARD_JWT_SECRET)")
		}
		if eff.Config.Retention.Enabled {
			fmt.Printf("- Attachment sweep: enabled (cron %q)\n", eff.Config.Retention.Cron)
		} else {
			fmt.Println("- Attachment sweep: disabled")
		}
	}
	fmt.Println()
}
