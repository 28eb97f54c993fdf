/*
 *
 * extdriver - helpers for driving Ext JS pages from Go
 * Copyright (C) 2024 extdriver authors
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as
 * published by the Free Software Foundation, either version 3 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

package common

import "time"

const (
	// Defaults

	DefaultTimeout       time.Duration = 10 * time.Second
	DefaultPollInterval  time.Duration = 200 * time.Millisecond
	DefaultRecheckDelay  time.Duration = 200 * time.Millisecond
	DefaultIdleTimeout   time.Duration = 30 * time.Second
	DefaultReloadTimeout time.Duration = 60 * time.Second

	// Script loading

	ScriptLoadTimeout time.Duration = 10 * time.Second
	ScriptNamespace   string        = "ExtDriver"
)
