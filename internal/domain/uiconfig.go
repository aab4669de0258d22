package domain

// UIConfig is the remote-controlled presentation document. Identity is the
// (Version, LastUpdated) pair; two documents with the same pair are treated
// as unchanged regardless of their remaining fields.
type UIConfig struct {
	Version     string           `json:"version"`
	LastUpdated string           `json:"lastUpdated"`
	Theme       ThemeConfig      `json:"theme"`
	Typography  TypographyConfig `json:"typography"`
	Layout      LayoutConfig     `json:"layout"`
	Animations  AnimationConfig  `json:"animations"`
	Features    FeatureConfig    `json:"features"`
	Branding    BrandingConfig   `json:"branding"`
}

type ThemeConfig struct {
	PrimaryColor       string `json:"primaryColor"`
	SecondaryColor     string `json:"secondaryColor"`
	BackgroundColor    string `json:"backgroundColor"`
	SurfaceColor       string `json:"surfaceColor"`
	TextColor          string `json:"textColor"`
	TextSecondaryColor string `json:"textSecondaryColor"`
	BorderColor        string `json:"borderColor"`
	AccentColor        string `json:"accentColor"`
	SuccessColor       string `json:"successColor"`
	ErrorColor         string `json:"errorColor"`
	WarningColor       string `json:"warningColor"`
}

type FontSizeScale struct {
	XS   string `json:"xs"`
	SM   string `json:"sm"`
	Base string `json:"base"`
	LG   string `json:"lg"`
	XL   string `json:"xl"`
	XXL  string `json:"2xl"`
	XXXL string `json:"3xl"`
}

type FontWeightScale struct {
	Normal   string `json:"normal"`
	Medium   string `json:"medium"`
	Semibold string `json:"semibold"`
	Bold     string `json:"bold"`
}

type TypographyConfig struct {
	FontFamily string          `json:"fontFamily"`
	FontSize   FontSizeScale   `json:"fontSize"`
	FontWeight FontWeightScale `json:"fontWeight"`
}

type RadiusScale struct {
	SM string `json:"sm"`
	MD string `json:"md"`
	LG string `json:"lg"`
	XL string `json:"xl"`
}

type SpacingScale struct {
	XS string `json:"xs"`
	SM string `json:"sm"`
	MD string `json:"md"`
	LG string `json:"lg"`
	XL string `json:"xl"`
}

type LayoutConfig struct {
	SidebarWidth   string       `json:"sidebarWidth"`
	BorderRadius   RadiusScale  `json:"borderRadius"`
	Spacing        SpacingScale `json:"spacing"`
	MessageSpacing string       `json:"messageSpacing"`
	MaxChatWidth   string       `json:"maxChatWidth"`
}

type DurationScale struct {
	Fast   string `json:"fast"`
	Normal string `json:"normal"`
	Slow   string `json:"slow"`
}

type AnimationConfig struct {
	Duration DurationScale `json:"duration"`
	Easing   string        `json:"easing"`
}

type FeatureConfig struct {
	ShowWelcomeScreen   bool `json:"showWelcomeScreen"`
	EnableAnimations    bool `json:"enableAnimations"`
	ShowTypingIndicator bool `json:"showTypingIndicator"`
	EnableSoundEffects  bool `json:"enableSoundEffects"`
	CompactMode         bool `json:"compactMode"`
	ShowTimestamps      bool `json:"showTimestamps"`
	EnableMarkdown      bool `json:"enableMarkdown"`
}

type BrandingConfig struct {
	AppName      string  `json:"appName"`
	Tagline      string  `json:"tagline"`
	ShowBranding bool    `json:"showBranding"`
	CustomLogo   *string `json:"customLogo"`
}
