package domain

import "time"

// RegionStyle is the paint setup of one shoe region (upper, sole or laces)
type RegionStyle struct {
	BaseColor        string   `json:"baseColor,omitempty" bson:"base_color,omitempty"`
	HasSplatter      bool     `json:"hasSplatter,omitempty" bson:"has_splatter,omitempty"`
	SplatterColor    string   `json:"splatterColor,omitempty" bson:"splatter_color,omitempty"`
	UseDualSplatter  bool     `json:"useDualSplatter,omitempty" bson:"use_dual_splatter,omitempty"`
	SplatterColor2   string   `json:"splatterColor2,omitempty" bson:"splatter_color2,omitempty"`
	HasGradient      bool     `json:"hasGradient,omitempty" bson:"has_gradient,omitempty"`
	GradientColors   []string `json:"gradientColors,omitempty" bson:"gradient_colors,omitempty"`
	TextureReference string   `json:"textureRef,omitempty" bson:"texture_ref,omitempty"`
}

// SplatterLabel formats the splatter as "color" or "color1 + color2". Empty when no splatter applies.
func (r RegionStyle) SplatterLabel() string {
	if !r.HasSplatter || r.SplatterColor == "" {
		return ""
	}
	if r.UseDualSplatter && r.SplatterColor2 != "" {
		return r.SplatterColor + " + " + r.SplatterColor2
	}
	return r.SplatterColor
}

// LogoTransform positions a logo decal on the model
type LogoTransform struct {
	X        float64 `json:"x" bson:"x"`
	Y        float64 `json:"y" bson:"y"`
	Scale    float64 `json:"scale" bson:"scale"`
	Rotation float64 `json:"rotation" bson:"rotation"`
}

// Logo is an uploaded decal
type Logo struct {
	URL       string         `json:"url,omitempty" bson:"url,omitempty"`
	Color     string         `json:"color,omitempty" bson:"color,omitempty"`
	Transform *LogoTransform `json:"transform,omitempty" bson:"transform,omitempty"`
}

// Present reports whether a logo was uploaded
func (l *Logo) Present() bool {
	return l != nil && l.URL != ""
}

// DesignConfiguration is the full visual state of the configurator
type DesignConfiguration struct {
	ColorwayID   string      `json:"colorwayId,omitempty" bson:"colorway_id,omitempty"`
	ColorwayName string      `json:"colorwayName,omitempty" bson:"colorway_name,omitempty"`
	Upper        RegionStyle `json:"upper" bson:"upper"`
	Sole         RegionStyle `json:"sole" bson:"sole"`
	Laces        RegionStyle `json:"laces" bson:"laces"`
	SideLogo     *Logo       `json:"sideLogo,omitempty" bson:"side_logo,omitempty"`
	BackLogo     *Logo       `json:"backLogo,omitempty" bson:"back_logo,omitempty"`
}

// Clone returns a copy that shares no slices or pointers with c
func (c DesignConfiguration) Clone() DesignConfiguration {
	out := c
	out.Upper.GradientColors = cloneStrings(c.Upper.GradientColors)
	out.Sole.GradientColors = cloneStrings(c.Sole.GradientColors)
	out.Laces.GradientColors = cloneStrings(c.Laces.GradientColors)
	out.SideLogo = c.SideLogo.clone()
	out.BackLogo = c.BackLogo.clone()
	return out
}

func (l *Logo) clone() *Logo {
	if l == nil {
		return nil
	}
	out := *l
	if l.Transform != nil {
		t := *l.Transform
		out.Transform = &t
	}
	return &out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

// SavedDesign is a persisted, shareable configuration
type SavedDesign struct {
	ID            string              `json:"id"`
	ShareToken    string              `json:"share_token"`
	Name          string              `json:"name"`
	Description   string              `json:"description,omitempty"`
	IsPublic      bool                `json:"is_public"`
	Configuration DesignConfiguration `json:"configuration"`
	ViewCount     int                 `json:"view_count"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
	LastViewedAt  *time.Time          `json:"last_viewed_at,omitempty"`
}
