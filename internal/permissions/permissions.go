package permissions

const (
	MediaUpload      = "media.upload"
	MediaApprove     = "media.approve"
	MediaEdit        = "media.edit"
	MediaDelete      = "media.delete"
	TagsManage       = "tags.manage"
	WidgetsConfigure = "widgets.configure"
	ChannelsConnect  = "channels.connect"
	ChannelsImport   = "channels.import"
	AnalyticsView    = "analytics.view"
	TeamManage       = "team.manage"
	BillingManage    = "billing.manage"
)

type Permission struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

var catalogue = []Permission{
	{Key: MediaUpload, Label: "Upload media", Description: "Upload new photos and videos", Category: "Media"},
	{Key: MediaApprove, Label: "Approve media", Description: "Approve or reject content in the moderation queue", Category: "Media"},
	{Key: MediaEdit, Label: "Edit media", Description: "Edit captions, product links and hotspots", Category: "Media"},
	{Key: MediaDelete, Label: "Delete media", Description: "Permanently delete media", Category: "Media"},
	{Key: TagsManage, Label: "Manage tags", Description: "Create tags and attach them to media", Category: "Tags"},
	{Key: WidgetsConfigure, Label: "Configure widgets", Description: "Create and edit storefront widgets", Category: "Widgets"},
	{Key: ChannelsConnect, Label: "Connect channels", Description: "Connect and disconnect social accounts", Category: "Channels"},
	{Key: ChannelsImport, Label: "Import content", Description: "Import posts from connected channels", Category: "Channels"},
	{Key: AnalyticsView, Label: "View analytics", Description: "See views, clicks and top content", Category: "Analytics"},
	{Key: TeamManage, Label: "Manage team", Description: "Invite members and change their permissions", Category: "Team"},
	{Key: BillingManage, Label: "Manage billing", Description: "Change the subscription plan", Category: "Billing"},
}

// categoryOrder keeps grouped output stable
var categoryOrder = []string{"Media", "Tags", "Widgets", "Channels", "Analytics", "Team", "Billing"}

const (
	PresetViewer = "VIEWER"
	PresetEditor = "EDITOR"
	PresetAdmin  = "ADMIN"
	PresetOwner  = "OWNER"
)

var presets = map[string][]string{
	PresetViewer: {AnalyticsView},
	PresetEditor: {MediaUpload, MediaApprove, MediaEdit, TagsManage, AnalyticsView},
	PresetAdmin: {
		MediaUpload, MediaApprove, MediaEdit, MediaDelete, TagsManage, WidgetsConfigure,
		ChannelsConnect, ChannelsImport, AnalyticsView, TeamManage,
	},
	PresetOwner: All(),
}

// All returns every permission key in catalogue order
func All() []string {
	keys := make([]string, 0, len(catalogue))
	for _, p := range catalogue {
		keys = append(keys, p.Key)
	}
	return keys
}

func Catalogue() []Permission {
	out := make([]Permission, len(catalogue))
	copy(out, catalogue)
	return out
}

// IsValid reports whether key is a known permission
func IsValid(key string) bool {
	for _, p := range catalogue {
		if p.Key == key {
			return true
		}
	}
	return false
}

// Preset returns a copy of the named preset
func Preset(name string) ([]string, bool) {
	list, ok := presets[name]
	if !ok {
		return nil, false
	}
	out := make([]string, len(list))
	copy(out, list)
	return out, true
}

func Presets() map[string][]string {
	out := make(map[string][]string, len(presets))
	for name := range presets {
		out[name], _ = Preset(name)
	}
	return out
}

type Group struct {
	Category    string       `json:"category"`
	Permissions []Permission `json:"permissions"`
}

// ByCategory groups the catalogue for display
func ByCategory() []Group {
	groups := make([]Group, 0, len(categoryOrder))
	for _, cat := range categoryOrder {
		g := Group{Category: cat}
		for _, p := range catalogue {
			if p.Category == cat {
				g.Permissions = append(g.Permissions, p)
			}
		}
		groups = append(groups, g)
	}
	return groups
}

// Normalize drops unknown and duplicate keys, keeping first-seen order
func Normalize(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if !IsValid(k) || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
