package auth

// Permission names carried in the perms claim.
const (
	PermGoodsReturnCreate  = "goods_return:create"
	PermGoodsReturnRead    = "goods_return:read"
	PermGoodsReturnApprove = "goods_return:approve"
	PermGoodsReturnProcess = "goods_return:process"
	PermGoodsReturnCancel  = "goods_return:cancel"
	PermInventoryRead      = "inventory:read"
)

// AllPermissions lists every permission the API checks.
func AllPermissions() []string {
	return []string{
		PermGoodsReturnCreate,
		PermGoodsReturnRead,
		PermGoodsReturnApprove,
		PermGoodsReturnProcess,
		PermGoodsReturnCancel,
		PermInventoryRead,
	}
}
