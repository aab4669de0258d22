package service

import (
	"sort"
	"strings"
	"sync"

	"github.com/Aman3008akn/chitchat/internal/domain"
)

// Feature classes toggled on the document root by the frontend.
const (
	classCompactMode        = "config-compact-mode"
	classAnimationsDisabled = "config-animations-disabled"
	classTimestampsHidden   = "config-timestamps-hidden"
)

// ThemeProjector turns a UIConfig into the CSS custom properties and feature
// classes the frontend consumes. Apply is a pure projection; applying the
// same config twice yields the same output.
type ThemeProjector struct {
	mu      sync.Mutex
	vars    map[string]string
	classes []string
}

func NewThemeProjector() *ThemeProjector {
	return &ThemeProjector{vars: make(map[string]string)}
}

func (p *ThemeProjector) Apply(cfg domain.UIConfig) {
	vars := map[string]string{
		"--config-primary":        cfg.Theme.PrimaryColor,
		"--config-secondary":      cfg.Theme.SecondaryColor,
		"--config-background":     cfg.Theme.BackgroundColor,
		"--config-surface":        cfg.Theme.SurfaceColor,
		"--config-text":           cfg.Theme.TextColor,
		"--config-text-secondary": cfg.Theme.TextSecondaryColor,
		"--config-border":         cfg.Theme.BorderColor,
		"--config-accent":         cfg.Theme.AccentColor,
		"--config-success":        cfg.Theme.SuccessColor,
		"--config-error":          cfg.Theme.ErrorColor,
		"--config-warning":        cfg.Theme.WarningColor,

		"--config-font-family":    cfg.Typography.FontFamily,
		"--config-font-size-xs":   cfg.Typography.FontSize.XS,
		"--config-font-size-sm":   cfg.Typography.FontSize.SM,
		"--config-font-size-base": cfg.Typography.FontSize.Base,
		"--config-font-size-lg":   cfg.Typography.FontSize.LG,
		"--config-font-size-xl":   cfg.Typography.FontSize.XL,
		"--config-font-size-2xl":  cfg.Typography.FontSize.XXL,
		"--config-font-size-3xl":  cfg.Typography.FontSize.XXXL,

		"--config-sidebar-width":    cfg.Layout.SidebarWidth,
		"--config-border-radius-sm": cfg.Layout.BorderRadius.SM,
		"--config-border-radius-md": cfg.Layout.BorderRadius.MD,
		"--config-border-radius-lg": cfg.Layout.BorderRadius.LG,
		"--config-border-radius-xl": cfg.Layout.BorderRadius.XL,
		"--config-spacing-xs":       cfg.Layout.Spacing.XS,
		"--config-spacing-sm":       cfg.Layout.Spacing.SM,
		"--config-spacing-md":       cfg.Layout.Spacing.MD,
		"--config-spacing-lg":       cfg.Layout.Spacing.LG,
		"--config-spacing-xl":       cfg.Layout.Spacing.XL,
		"--config-message-spacing":  cfg.Layout.MessageSpacing,

		"--config-duration-fast":   cfg.Animations.Duration.Fast,
		"--config-duration-normal": cfg.Animations.Duration.Normal,
		"--config-duration-slow":   cfg.Animations.Duration.Slow,
		"--config-easing":          cfg.Animations.Easing,
	}

	var classes []string
	if cfg.Features.CompactMode {
		classes = append(classes, classCompactMode)
	}
	if !cfg.Features.EnableAnimations {
		classes = append(classes, classAnimationsDisabled)
	}
	if !cfg.Features.ShowTimestamps {
		classes = append(classes, classTimestampsHidden)
	}

	p.mu.Lock()
	p.vars = vars
	p.classes = classes
	p.mu.Unlock()
}

// Variables returns the current CSS custom properties.
func (p *ThemeProjector) Variables() map[string]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]string, len(p.vars))
	for k, v := range p.vars {
		out[k] = v
	}
	return out
}

// FeatureClasses returns the classes to toggle on the document root.
func (p *ThemeProjector) FeatureClasses() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.classes))
	copy(out, p.classes)
	return out
}

// Stylesheet renders the custom properties as a :root block, keys sorted for
// stable output.
func (p *ThemeProjector) Stylesheet() string {
	vars := p.Variables()
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(":root {\n")
	for _, k := range keys {
		b.WriteString("  ")
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(vars[k])
		b.WriteString(";\n")
	}
	b.WriteString("}\n")
	return b.String()
}
