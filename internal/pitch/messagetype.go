package pitch

// MessageTypeInfo names a CBOE PITCH message-body type for diagnostics
// only. This lookup is never used to decode or validate a message body —
// decoding message bodies is explicitly out of scope for this capture
// pipeline; it exists purely so warnings and reports can name a type
// byte instead of printing a raw hex value.
type MessageTypeInfo struct {
	TypeID      byte
	Name        string
	Description string
	MinLength   byte
}

var cboeMessageTypes = []MessageTypeInfo{
	{0x97, "UNIT_CLEAR", "Unit Clear", 2},
	{0x3B, "TRADING_STATUS", "Trading Status", 8},
	{0x37, "ADD_ORDER", "Add Order", 34},
	{0x38, "ORDER_EXECUTED", "Order Executed", 30},
	{0x58, "ORDER_EXECUTED_AT_PRICE", "Order Executed at Price", 38},
	{0x39, "REDUCE_SIZE", "Reduce Size", 18},
	{0x3A, "MODIFY_ORDER", "Modify Order", 34},
	{0x3C, "DELETE_ORDER", "Delete Order", 18},
	{0x3D, "TRADE", "Trade", 42},
	{0x3E, "TRADE_BREAK", "Trade Break", 18},
	{0xE3, "CALCULATED_VALUE", "Calculated Value", 26},
	{0x2D, "END_OF_SESSION", "End of Session", 2},
	{0x59, "AUCTION_UPDATE", "Auction Update", 30},
	{0x5A, "AUCTION_SUMMARY", "Auction Summary", 30},
	{0x01, "LOGIN", "Login", 44},
	{0x02, "LOGIN_RESPONSE", "Login Response", 3},
	{0x03, "GAP_REQUEST", "Gap Request", 20},
	{0x04, "GAP_RESPONSE", "Gap Response", 20},
	{0x80, "SPIN_IMAGE_AVAILABLE", "Spin Image Available", 20},
	{0x81, "SPIN_REQUEST", "Spin Request", 20},
	{0x82, "SPIN_RESPONSE", "Spin Response", 20},
	{0x83, "SPIN_FINISHED", "Spin Finished", 20},
}

// LookupMessageType returns diagnostic information for a PITCH message
// type byte, if known.
func LookupMessageType(typeID byte) (MessageTypeInfo, bool) {
	for _, m := range cboeMessageTypes {
		if m.TypeID == typeID {
			return m, true
		}
	}
	return MessageTypeInfo{}, false
}
