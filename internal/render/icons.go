package render

import "strings"

const (
	terrastruct = "https://icons.terrastruct.com"
	selfhst     = "https://cdn.jsdelivr.net/gh/selfhst/icons/svg"
)

// iconRegistry maps service ids and image fragments to icon URLs.
var iconRegistry = map[string]string{
	// Media servers
	"plex":           selfhst + "/plex.svg",
	"jellyfin":       selfhst + "/jellyfin.svg",
	"emby":           selfhst + "/emby.svg",
	"audiobookshelf": selfhst + "/audiobookshelf.svg",

	// Media management
	"radarr": selfhst + "/radarr.svg",
	"sonarr": selfhst + "/sonarr.svg",
	"lidarr": selfhst + "/lidarr.svg",
	"mylar3": selfhst + "/mylar3.svg",
	"bazarr": selfhst + "/bazarr.svg",

	// Indexers
	"prowlarr":     selfhst + "/prowlarr.svg",
	"jackett":      selfhst + "/jackett.svg",
	"flaresolverr": selfhst + "/flaresolverr.svg",

	// Download
	"qbittorrent": selfhst + "/qbittorrent.svg",
	"sabnzbd":     selfhst + "/sabnzbd.svg",
	"nzbget":      selfhst + "/nzbget.svg",
	"gluetun":     selfhst + "/gluetun.svg",

	// Requests and utilities
	"seerr":      selfhst + "/jellyseerr.svg",
	"jellyseerr": selfhst + "/jellyseerr.svg",
	"overseerr":  selfhst + "/overseerr.svg",
	"tautulli":   selfhst + "/tautulli.svg",
	"homarr":     selfhst + "/homarr.svg",
	"watchtower": selfhst + "/watchtower.svg",

	// Infrastructure
	"docker":   terrastruct + "/dev/docker.svg",
	"internet": terrastruct + "/tech/002-network.svg",
}

// LookupIcon returns the icon URL for a service id or image.
func LookupIcon(id, image string) string {
	if url, ok := iconRegistry[strings.ToLower(id)]; ok {
		return url
	}

	// The image repository name, e.g. "lscr.io/linuxserver/radarr:latest" -> "radarr".
	repo := strings.ToLower(image)
	if i := strings.LastIndexByte(repo, '/'); i >= 0 {
		repo = repo[i+1:]
	}
	if i := strings.IndexByte(repo, ':'); i >= 0 {
		repo = repo[:i]
	}
	if url, ok := iconRegistry[repo]; ok {
		return url
	}
	return ""
}
