package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
)

// SVGContent is the tray icon for toolkits that render vector resources.
const SVGContent = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 16 16" width="16" height="16">
  <!-- Selection loop/rectangle -->
  <rect x="3" y="3" width="8" height="6" fill="none" stroke="#0078d4" stroke-width="1.5" stroke-dasharray="2,1" opacity="0.8"/>
  
  <!-- Scissors -->
  <g transform="translate(10.5, 11) rotate(-45)">
    <!-- Scissor handles -->
    <circle cx="0" cy="-1" r="1" fill="none" stroke="#333333" stroke-width="0.8"/>
    <circle cx="0" cy="1" r="1" fill="none" stroke="#333333" stroke-width="0.8"/>
    
    <!-- Scissor blades -->
    <line x1="0.7" y1="-0.3" x2="2.5" y2="-0.8" stroke="#333333" stroke-width="1" stroke-linecap="round"/>
    <line x1="0.7" y1="0.3" x2="2.5" y2="0.8" stroke="#333333" stroke-width="1" stroke-linecap="round"/>
    
    <!-- Center pivot -->
    <circle cx="0.5" cy="0" r="0.3" fill="#666666"/>
  </g>
  
  <!-- Small cut line to show action -->
  <line x1="8" y1="9.5" x2="10" y2="11.5" stroke="#666666" stroke-width="1" stroke-dasharray="1,1" opacity="0.6"/>
</svg>`

const iconSize = 32

// IconPNG rasterizes a dashed selection frame with a cross-hair, the bitmap
// counterpart of SVGContent.
func IconPNG() []byte {
	img := image.NewNRGBA(image.Rect(0, 0, iconSize, iconSize))
	blue := color.NRGBA{R: 0x00, G: 0x78, B: 0xd4, A: 0xff}
	dark := color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}

	for i := 4; i < 28; i++ {
		if (i/3)%2 == 1 {
			continue
		}
		for w := 0; w < 2; w++ {
			img.SetNRGBA(i, 4+w, blue)
			img.SetNRGBA(i, 22+w, blue)
			img.SetNRGBA(4+w, i*18/24, blue)
			img.SetNRGBA(26+w, i*18/24, blue)
		}
	}
	for i := 18; i < 31; i++ {
		img.SetNRGBA(i, 24, dark)
		img.SetNRGBA(24, i-6, dark)
	}

	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

// IconICO wraps IconPNG in a single-image ICO container, which is what the
// Windows notification area expects.
func IconICO() []byte {
	pngData := IconPNG()
	var buf bytes.Buffer
	// ICONDIR
	_ = binary.Write(&buf, binary.LittleEndian, [3]uint16{0, 1, 1})
	// ICONDIRENTRY
	buf.Write([]byte{iconSize, iconSize, 0, 0})
	_ = binary.Write(&buf, binary.LittleEndian, [2]uint16{1, 32})
	_ = binary.Write(&buf, binary.LittleEndian, [2]uint32{uint32(len(pngData)), 6 + 16})
	buf.Write(pngData)
	return buf.Bytes()
}
