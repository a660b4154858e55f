// Adverse-selection price response: mispricing shifts the quality of the
// attracted risk pool, which feeds back into claim frequency.
package claims

import "github.com/veldtworks/underwriters/internal/domain"

// SelectionModifier computes the frequency modifier from a company's price
// relative to the segment average. The response is asymmetric: underpricing
// amplifies risk intake more than overpricing relieves it. Tier segmentation
// and line sensitivity scale the effect; the result is clamped to the
// configured band before it reaches frequency generation.
func (g *Generator) SelectionModifier(price, marketAvg float64, tier domain.Tier, line domain.LineOfBusiness) float64 {
	cc := g.cfg.Claims
	if price <= 0 || marketAvg <= 0 {
		return 1.0
	}

	ratio := price / marketAvg
	var raw float64
	if ratio < 1 {
		raw = 1 + (1-ratio)*cc.UnderpricingAmp
	} else {
		raw = 1 - (ratio-1)*cc.OverpricingRelief
	}

	segmentation := g.cfg.Tier(tier).Segmentation
	sensitivity := g.cfg.Line(line).SelectionSensitivity
	mod := 1 + (raw-1)*segmentation*sensitivity

	if mod < cc.SelectionClampLow {
		mod = cc.SelectionClampLow
	}
	if mod > cc.SelectionClampHigh {
		mod = cc.SelectionClampHigh
	}
	return mod
}
