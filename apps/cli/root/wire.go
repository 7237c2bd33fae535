package root

import (
	"github.com/posbill/posbill-saas/apps/cli/cmd/auth"
	"github.com/posbill/posbill-saas/apps/cli/cmd/bootstrap"
	"github.com/posbill/posbill-saas/apps/cli/cmd/db"
	"github.com/posbill/posbill-saas/apps/cli/cmd/plans"
	"github.com/posbill/posbill-saas/apps/cli/cmd/subscription"
	tenantcmd "github.com/posbill/posbill-saas/apps/cli/cmd/tenant"
)

func init() {
	Root().AddCommand(auth.Command())
	Root().AddCommand(db.Command())
	Root().AddCommand(bootstrap.Command())
	Root().AddCommand(plans.Command())
	Root().AddCommand(tenantcmd.Command())
	Root().AddCommand(subscription.Command())
}
