package whatsapp

import "encoding/xml"

// messagingResponse is the TwiML reply body Twilio expects from a
// webhook handler.
type messagingResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

// TwiML renders a message reply as a TwiML document.
func TwiML(body string) ([]byte, error) {
	encoded, err := xml.Marshal(messagingResponse{Message: body})
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), encoded...), nil
}
