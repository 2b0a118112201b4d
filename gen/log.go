package gen

import (
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("pvm.gen")
