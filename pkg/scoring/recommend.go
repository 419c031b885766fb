package scoring

// Recommendation 投资建议
type Recommendation string

const (
	StrongBuy  Recommendation = "strong buy"
	Buy        Recommendation = "buy"
	HoldWatch  Recommendation = "hold/watch"
	Sell       Recommendation = "sell"
	StrongSell Recommendation = "strong sell"
)

func (r Recommendation) String() string {
	return string(r)
}

// Recommend 将评分映射为建议，阈值左闭
func Recommend(score int) Recommendation {
	switch {
	case score >= 80:
		return StrongBuy
	case score >= 60:
		return Buy
	case score >= 40:
		return HoldWatch
	case score >= 20:
		return Sell
	default:
		return StrongSell
	}
}
