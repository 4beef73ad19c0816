package fonts

// Built-in Helvetica metrics, used when no face is registered for a name.
// Widths are the classic AFM values in 1/1000 em for the printable ASCII
// range; anything outside it falls back to the em-half average.

const (
	builtinAscent  = 0.718
	builtinDescent = 0.207
	builtinAverage = 500
)

var helveticaWidths = [95]int{
	278, 278, 355, 556, 556, 889, 667, 191, // space ! " # $ % & '
	333, 333, 389, 584, 278, 333, 278, 278, // ( ) * + , - . /
	556, 556, 556, 556, 556, 556, 556, 556, // 0-7
	556, 556, 278, 278, 584, 584, 584, 556, // 8 9 : ; < = > ?
	1015, 667, 667, 722, 722, 667, 611, 778, // @ A-G
	722, 278, 500, 667, 556, 833, 722, 778, // H-O
	667, 778, 722, 667, 611, 722, 667, 944, // P-W
	667, 667, 611, 278, 278, 278, 469, 556, // X Y Z [ \ ] ^ _
	333, 556, 556, 500, 556, 556, 278, 556, // ` a-g
	556, 222, 222, 500, 222, 833, 556, 556, // h-o
	556, 556, 333, 500, 278, 556, 500, 722, // p-w
	500, 500, 500, 334, 260, 334, 584, // x y z { | } ~
}

func builtinMeasure(text string, size float64) float64 {
	var units int
	for _, r := range text {
		if r >= ' ' && r <= '~' {
			units += helveticaWidths[r-' ']
		} else {
			units += builtinAverage
		}
	}
	return float64(units) / 1000 * size
}

func builtinMetrics(size float64) Metrics {
	return Metrics{Ascent: builtinAscent * size, Descent: builtinDescent * size}
}
